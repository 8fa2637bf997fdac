package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if n, err := s.users.CountDocuments(ctx, bson.M{"email": u.Email}, options.Count().SetLimit(1)); err != nil {
		return err
	} else if n > 0 {
		return store.ErrDuplicateEmail
	}
	if n, err := s.users.CountDocuments(ctx, bson.M{"username": u.Username}, options.Count().SetLimit(1)); err != nil {
		return err
	} else if n > 0 {
		return store.ErrDuplicateUsername
	}

	ts := now()
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.PasswordHash,
		Bio:       u.Bio,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		switch {
		case isIndexViolation(err, indexEmail):
			return store.ErrDuplicateEmail
		case isIndexViolation(err, indexUsername):
			return store.ErrDuplicateUsername
		}
		return translate(err)
	}

	*u = *doc.model()
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

func (s *Store) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"$or": bson.A{
		bson.M{"username": login},
		bson.M{"email": login},
	}})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.model(), nil
}

func (s *Store) ListUsers(ctx context.Context, l query.List) ([]models.User, int64, error) {
	filter := bson.M{}
	if l.Search != "" {
		filter["username"] = containsRegex(l.Search)
	}

	total, err := s.users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(sortSpec(query.Users, l)).
		SetSkip(int64(l.Skip())).
		SetLimit(int64(l.Limit))
	cursor, err := s.users.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	users := make([]models.User, len(docs))
	for i := range docs {
		users[i] = *docs[i].model()
	}
	return users, total, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, upd store.UserUpdate) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	oid, _ := objectID(user.ID)

	set := bson.M{}
	if upd.Username != nil && *upd.Username != user.Username {
		n, err := s.users.CountDocuments(ctx, bson.M{"username": *upd.Username, "_id": bson.M{"$ne": oid}}, options.Count().SetLimit(1))
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, store.ErrDuplicateUsername
		}
		set["username"] = *upd.Username
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if len(set) == 0 {
		return user, nil
	}
	set["updatedAt"] = now()

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if isIndexViolation(err, indexUsername) {
			return nil, store.ErrDuplicateUsername
		}
		return nil, translate(err)
	}
	return doc.model(), nil
}

// DeleteUser removes the account, its reviews and tracked games, then
// refreshes the rating aggregates of every game it had reviewed.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}

	gameIDs, err := s.reviews.Distinct(ctx, "game", bson.M{"user": oid})
	if err != nil {
		return err
	}

	if _, err := s.reviews.DeleteMany(ctx, bson.M{"user": oid}); err != nil {
		return err
	}
	if _, err := s.tracked.DeleteMany(ctx, bson.M{"user": oid}); err != nil {
		return err
	}
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}

	for _, raw := range gameIDs {
		gameID, ok := raw.(primitive.ObjectID)
		if !ok {
			continue
		}
		if err := s.recomputeRating(ctx, gameID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}
