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

func (s *Store) GetGame(ctx context.Context, id string) (*models.Game, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc gameDoc
	if err := s.games.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func gameFilter(l query.List) bson.M {
	filter := bson.M{}
	if l.Search != "" {
		filter["title"] = containsRegex(l.Search)
	}
	// a regex on an array field matches any element
	if l.Genre != "" {
		filter["genres"] = containsRegex(l.Genre)
	}
	if l.Platform != "" {
		filter["platforms"] = containsRegex(l.Platform)
	}

	rating := bson.M{}
	if l.MinRating != nil {
		rating["$gte"] = *l.MinRating
	}
	if l.MaxRating != nil {
		rating["$lte"] = *l.MaxRating
	}
	if len(rating) > 0 {
		filter["averageRating"] = rating
	}
	return filter
}

func (s *Store) ListGames(ctx context.Context, l query.List) ([]models.Game, int64, error) {
	filter := gameFilter(l)

	total, err := s.games.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(sortSpec(query.Games, l)).
		SetSkip(int64(l.Skip())).
		SetLimit(int64(l.Limit))
	cursor, err := s.games.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	var docs []gameDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	games := make([]models.Game, len(docs))
	for i := range docs {
		games[i] = *docs[i].model()
	}
	return games, total, nil
}

// UpsertGame replaces the catalog fields of the game with g.Slug, inserting it
// when missing. Rating aggregates are only written on insert.
func (s *Store) UpsertGame(ctx context.Context, g *models.Game) (bool, error) {
	ts := now()
	update := bson.M{
		"$set": bson.M{
			"title":       g.Title,
			"summary":     g.Summary,
			"genres":      g.Genres,
			"platforms":   g.Platforms,
			"thumbnail":   g.ThumbnailURL,
			"releaseDate": g.ReleaseDate,
			"updatedAt":   ts,
		},
		"$setOnInsert": bson.M{
			"_id":           primitive.NewObjectID(),
			"slug":          g.Slug,
			"averageRating": 0.0,
			"reviewCount":   int64(0),
			"createdAt":     ts,
		},
	}
	opts := options.Update().SetUpsert(true)

	var (
		res *mongo.UpdateResult
		err error
	)
	// Two concurrent upserts of a new slug can both try to insert; the loser retries as an update.
	for attempt := 0; attempt < 2; attempt++ {
		res, err = s.games.UpdateOne(ctx, bson.M{"slug": g.Slug}, update, opts)
		if !mongo.IsDuplicateKeyError(err) {
			break
		}
	}
	if err != nil {
		return false, translate(err)
	}

	var doc gameDoc
	if err := s.games.FindOne(ctx, bson.M{"slug": g.Slug}).Decode(&doc); err != nil {
		return false, translate(err)
	}
	*g = *doc.model()
	return res.UpsertedCount > 0, nil
}

// recomputeRating refreshes a game's averageRating and reviewCount from its reviews.
func (s *Store) recomputeRating(ctx context.Context, gameID primitive.ObjectID) error {
	cursor, err := s.reviews.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"game": gameID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return err
	}

	var results []struct {
		Average float64 `bson:"average"`
		Count   int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return err
	}

	set := bson.M{"averageRating": 0.0, "reviewCount": int64(0)}
	if len(results) > 0 {
		set["averageRating"] = results[0].Average
		set["reviewCount"] = results[0].Count
	}

	res, err := s.games.UpdateOne(ctx, bson.M{"_id": gameID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
