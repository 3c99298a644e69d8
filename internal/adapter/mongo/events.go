package mongo

import (
	"context"
	"time"

	"github.com/couchcryptid/stargazer-events/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventRepository implements domain.EventRepository on the events collection.
type EventRepository struct {
	coll *mongo.Collection
}

func (r *EventRepository) Insert(ctx context.Context, events ...domain.AstronomicalEvent) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]any, len(events))
	for i := range events {
		docs[i] = toEventDoc(events[i])
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return mapErr("insert events", err)
}

func (r *EventRepository) List(ctx context.Context) ([]domain.AstronomicalEvent, error) {
	return r.find(ctx, "list events", bson.D{})
}

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{})
	return n, mapErr("count events", err)
}

func (r *EventRepository) Get(ctx context.Context, id string) (domain.AstronomicalEvent, error) {
	var d eventDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&d); err != nil {
		return domain.AstronomicalEvent{}, mapErr("get event", err)
	}
	return d.domain(), nil
}

// Near uses $centerSphere, whose radius is in radians of the same earth
// radius the in-memory store measures with.
func (r *EventRepository) Near(ctx context.Context, lat, lon, radiusKm float64) ([]domain.AstronomicalEvent, error) {
	filter := bson.D{{Key: "location", Value: bson.D{{Key: "$geoWithin", Value: bson.D{
		{Key: "$centerSphere", Value: bson.A{bson.A{lon, lat}, centerSphereRadians(radiusKm)}},
	}}}}}
	return r.find(ctx, "near events", filter)
}

func (r *EventRepository) DeleteEndedBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "endDate", Value: bson.D{{Key: "$lt", Value: t.UTC()}}}})
	if err != nil {
		return 0, mapErr("delete expired events", err)
	}
	return res.DeletedCount, nil
}

func (r *EventRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, mapErr("delete events", err)
	}
	return res.DeletedCount, nil
}

func (r *EventRepository) find(ctx context.Context, op string, filter bson.D) ([]domain.AstronomicalEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startDate", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapErr(op, err)
	}
	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(op, err)
	}
	out := make([]domain.AstronomicalEvent, len(docs))
	for i := range docs {
		out[i] = docs[i].domain()
	}
	return out, nil
}

func centerSphereRadians(radiusKm float64) float64 {
	return radiusKm / domain.EarthMeanRadiusKm
}
