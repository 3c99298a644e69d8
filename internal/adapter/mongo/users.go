package mongo

import (
	"context"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository implements domain.UserRepository on the users collection.
// Settings and personal events are embedded in the user document.
type UserRepository struct {
	coll *mongo.Collection
}

// Register upserts with $setOnInsert so an existing record is never overwritten.
func (r *UserRepository) Register(ctx context.Context, u domain.User) (domain.User, error) {
	d := toUserDoc(u)
	insert := bson.D{
		{Key: "events", Value: d.Events},
		{Key: "createdAt", Value: d.CreatedAt},
	}
	if d.Name != "" {
		insert = append(insert, bson.E{Key: "name", Value: d.Name})
	}
	if d.Email != "" {
		insert = append(insert, bson.E{Key: "email", Value: d.Email})
	}
	if d.Settings != nil {
		insert = append(insert, bson.E{Key: "settings", Value: d.Settings})
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stored userDoc
	err := r.coll.FindOneAndUpdate(ctx, byID(u.ID), bson.D{{Key: "$setOnInsert", Value: insert}}, opts).Decode(&stored)
	if err != nil {
		return domain.User{}, mapErr("register user", err)
	}
	return stored.domain(), nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	var d userDoc
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&d); err != nil {
		return domain.User{}, mapErr("get user", err)
	}
	return d.domain(), nil
}

// List returns users sorted by id.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, mapErr("list users", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr("list users", err)
	}
	out := make([]domain.User, len(docs))
	for i := range docs {
		out[i] = docs[i].domain()
	}
	return out, nil
}

func (r *UserRepository) SetSettings(ctx context.Context, id string, s domain.UserSettings) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "settings", Value: toSettingsDoc(s)}}}}
	return r.updateOne(ctx, "set settings", byID(id), update)
}

func (r *UserRepository) AppendEvent(ctx context.Context, id string, e domain.UserEvent) error {
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "events", Value: toUserEventDoc(e)}}}}
	return r.updateOne(ctx, "append user event", byID(id), update)
}

// RemoveEvent matches on the embedded event id so a missing event and a
// missing user both report ErrNotFound.
func (r *UserRepository) RemoveEvent(ctx context.Context, id, eventID string) error {
	filter := bson.D{{Key: "_id", Value: id}, {Key: "events.id", Value: eventID}}
	update := bson.D{{Key: "$pull", Value: bson.D{{Key: "events", Value: bson.D{{Key: "id", Value: eventID}}}}}}
	return r.updateOne(ctx, "remove user event", filter, update)
}

func (r *UserRepository) updateOne(ctx context.Context, op string, filter, update bson.D) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapErr(op, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}
