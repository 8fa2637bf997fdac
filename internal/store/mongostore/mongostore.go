// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gamehub/backend/internal/query"
	"gamehub/backend/internal/store"
)

const (
	usersCollection        = "users"
	gamesCollection        = "games"
	reviewsCollection      = "reviews"
	trackedGamesCollection = "tracked_games"
)

// Index names are matched in duplicate-key errors to tell email from username.
const (
	indexUsername = "username_unique"
	indexEmail    = "email_unique"
)

// Store is a MongoDB-backed store.Store.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	users   *mongo.Collection
	games   *mongo.Collection
	reviews *mongo.Collection
	tracked *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, verifies the connection and ensures indexes on dbName.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := New(client, dbName)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New wraps a connected client.
func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:  client,
		db:      db,
		users:   db.Collection(usersCollection),
		games:   db.Collection(gamesCollection),
		reviews: db.Collection(reviewsCollection),
		tracked: db.Collection(trackedGamesCollection),
	}
}

// Database exposes the underlying database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// EnsureIndexes creates the unique indexes that back the uniqueness invariants.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexUsername)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexEmail)},
		},
		s.games: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true).SetName("slug_unique")},
			{Keys: bson.D{{Key: "title", Value: 1}}},
		},
		s.reviews: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "game", Value: 1}}, Options: options.Index().SetUnique(true).SetName("user_game_unique")},
			{Keys: bson.D{{Key: "game", Value: 1}}},
		},
		s.tracked: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "game", Value: 1}}, Options: options.Index().SetUnique(true).SetName("user_game_unique")},
		},
	}

	for coll, indexes := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	default:
		return err
	}
}

// objectID parses a hex id. Unparseable ids cannot exist, so they are not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return oid, nil
}

// now is truncated to the millisecond precision BSON dates keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// containsRegex matches term as a case-insensitive literal substring.
func containsRegex(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

// sortKeys maps API sort fields to document keys where they differ.
var sortKeys = map[string]map[string]string{
	query.TrackedGames.Name: {"title": "gameDoc.title"},
}

func sortSpec(r query.Resource, l query.List) bson.D {
	field := l.SortField
	if !r.Sortable(field) {
		field = r.DefaultSort
	}
	if key, ok := sortKeys[r.Name][field]; ok {
		field = key
	}

	dir := -1
	if l.Ascending() {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}

func isIndexViolation(err error, index string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), index)
}
