package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/store"
)

func pairIDs(userID, gameID string) (user, game primitive.ObjectID, err error) {
	if user, err = objectID(userID); err != nil {
		return
	}
	game, err = objectID(gameID)
	return
}

func pairFilter(userID, gameID string) (bson.M, error) {
	user, game, err := pairIDs(userID, gameID)
	if err != nil {
		return nil, err
	}
	return bson.M{"user": user, "game": game}, nil
}

func (s *Store) CreateTrackedGame(ctx context.Context, tg *models.TrackedGame) (*models.TrackedGame, error) {
	user, game, err := pairIDs(tg.UserID, tg.GameID)
	if err != nil {
		return nil, err
	}

	status := tg.Status
	if status == "" {
		status = models.StatusUnowned
	}

	ts := now()
	doc := trackedDoc{
		ID:        primitive.NewObjectID(),
		User:      user,
		Game:      game,
		Status:    string(status),
		Notes:     tg.Notes,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if _, err := s.tracked.InsertOne(ctx, doc); err != nil {
		return nil, translate(err)
	}
	return s.GetTrackedGame(ctx, tg.UserID, tg.GameID)
}

func (s *Store) GetTrackedGame(ctx context.Context, userID, gameID string) (*models.TrackedGame, error) {
	filter, err := pairFilter(userID, gameID)
	if err != nil {
		return nil, err
	}

	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: filter}},
	}, populateStages(false)...)

	cursor, err := s.tracked.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []trackedDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}
	return docs[0].model(), nil
}

// ListTrackedGames filters on status before the join and on the game's title,
// genres or platforms after it, then pages with $facet so the count and the
// window come from one query.
func (s *Store) ListTrackedGames(ctx context.Context, userID string, l query.List) ([]models.TrackedGame, int64, error) {
	user, err := objectID(userID)
	if err != nil {
		return nil, 0, nil
	}

	match := bson.M{"user": user}
	if l.Status != "" {
		match["status"] = string(l.Status)
	}

	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: match}},
	}, populateStages(false)...)
	if l.Search != "" {
		re := containsRegex(l.Search)
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"gameDoc.title": re},
			bson.M{"gameDoc.genres": re},
			bson.M{"gameDoc.platforms": re},
		}}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$facet", Value: bson.M{
		"items": bson.A{
			bson.M{"$sort": sortSpec(query.TrackedGames, l)},
			bson.M{"$skip": int64(l.Skip())},
			bson.M{"$limit": int64(l.Limit)},
		},
		"total": bson.A{
			bson.M{"$count": "count"},
		},
	}}})

	cursor, err := s.tracked.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}

	var results []struct {
		Items []trackedDoc `bson:"items"`
		Total []struct {
			Count int64 `bson:"count"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, err
	}
	if len(results) == 0 {
		return nil, 0, nil
	}

	var total int64
	if len(results[0].Total) > 0 {
		total = results[0].Total[0].Count
	}
	items := make([]models.TrackedGame, len(results[0].Items))
	for i := range results[0].Items {
		items[i] = *results[0].Items[i].model()
	}
	return items, total, nil
}

func (s *Store) UpdateTrackedGame(ctx context.Context, userID, gameID string, upd store.TrackedGameUpdate) (*models.TrackedGame, error) {
	filter, err := pairFilter(userID, gameID)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if upd.Status != nil {
		set["status"] = string(*upd.Status)
	}
	if upd.Notes != nil {
		set["notes"] = *upd.Notes
	}
	if len(set) > 0 {
		set["updatedAt"] = now()
		res, err := s.tracked.UpdateOne(ctx, filter, bson.M{"$set": set})
		if err != nil {
			return nil, translate(err)
		}
		if res.MatchedCount == 0 {
			return nil, store.ErrNotFound
		}
	}
	return s.GetTrackedGame(ctx, userID, gameID)
}

func (s *Store) DeleteTrackedGame(ctx context.Context, userID, gameID string) error {
	filter, err := pairFilter(userID, gameID)
	if err != nil {
		return err
	}

	res, err := s.tracked.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
