package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/store"
)

// populateStages joins the owner and the game into userDoc and gameDoc.
func populateStages(withUser bool) mongo.Pipeline {
	var stages mongo.Pipeline
	if withUser {
		stages = append(stages,
			bson.D{{Key: "$lookup", Value: bson.M{
				"from": usersCollection, "localField": "user", "foreignField": "_id", "as": "userDoc",
			}}},
			bson.D{{Key: "$unwind", Value: bson.M{"path": "$userDoc", "preserveNullAndEmptyArrays": true}}},
		)
	}
	return append(stages,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from": gamesCollection, "localField": "game", "foreignField": "_id", "as": "gameDoc",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$gameDoc", "preserveNullAndEmptyArrays": true}}},
	)
}

func (s *Store) CreateReview(ctx context.Context, r *models.Review) (*models.Review, error) {
	userID, err := objectID(r.UserID)
	if err != nil {
		return nil, err
	}
	gameID, err := objectID(r.GameID)
	if err != nil {
		return nil, err
	}

	ts := now()
	doc := reviewDoc{
		ID:         primitive.NewObjectID(),
		User:       userID,
		Game:       gameID,
		Rating:     r.Rating,
		Title:      r.Title,
		ReviewBody: r.Body,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	if _, err := s.reviews.InsertOne(ctx, doc); err != nil {
		return nil, translate(err)
	}
	if err := s.recomputeRating(ctx, gameID); err != nil {
		return nil, err
	}
	return s.GetReview(ctx, doc.ID.Hex())
}

func (s *Store) GetReview(ctx context.Context, id string) (*models.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": oid}}},
	}, populateStages(true)...)

	cursor, err := s.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []reviewDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return docs[0].model(), nil
}

func (s *Store) ListReviews(ctx context.Context, f store.ReviewFilter, l query.List) ([]models.Review, int64, error) {
	filter := bson.M{}
	if f.GameID != "" {
		oid, err := objectID(f.GameID)
		if err != nil {
			return nil, 0, nil
		}
		filter["game"] = oid
	}
	if f.UserID != "" {
		oid, err := objectID(f.UserID)
		if err != nil {
			return nil, 0, nil
		}
		filter["user"] = oid
	}
	if l.Search != "" {
		filter["title"] = containsRegex(l.Search)
	}

	total, err := s.reviews.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: sortSpec(query.Reviews, l)}},
		{{Key: "$skip", Value: int64(l.Skip())}},
		{{Key: "$limit", Value: int64(l.Limit)}},
	}, populateStages(true)...)

	cursor, err := s.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	var docs []reviewDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	reviews := make([]models.Review, len(docs))
	for i := range docs {
		reviews[i] = *docs[i].model()
	}
	return reviews, total, nil
}

func (s *Store) UpdateReview(ctx context.Context, id string, upd store.ReviewUpdate) (*models.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if upd.Rating != nil {
		set["rating"] = *upd.Rating
	}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Body != nil {
		set["reviewBody"] = *upd.Body
	}
	if len(set) == 0 {
		return s.GetReview(ctx, id)
	}
	set["updatedAt"] = now()

	var doc reviewDoc
	err = s.reviews.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, translate(err)
	}

	if upd.Rating != nil {
		if err := s.recomputeRating(ctx, doc.Game); err != nil {
			return nil, err
		}
	}
	return s.GetReview(ctx, id)
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	var doc reviewDoc
	if err := s.reviews.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return translate(err)
	}
	return s.recomputeRating(ctx, doc.Game)
}
