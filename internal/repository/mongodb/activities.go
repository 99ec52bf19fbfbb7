package mongodb

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository"
)

type activityDoc struct {
	models.Activity `bson:",inline"`
	Shipments       []models.Shipment `bson:"shipment"`
	Customers       []models.Customer `bson:"customer"`
}

func (d activityDoc) joined() models.Activity {
	a := d.Activity
	if len(d.Shipments) > 0 {
		s := d.Shipments[0]
		a.Shipment = &s
	}
	if len(d.Customers) > 0 {
		c := d.Customers[0]
		a.Customer = &c
	}
	return a
}

// RecentActivities returns the newest activities joined with shipment and customer.
func (r *MongoDBRepository) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: shipmentsCollection},
			{Key: "localField", Value: "shipment_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "shipment"},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: customersCollection},
			{Key: "localField", Value: "customer_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "customer"},
		}}},
	}

	cursor, err := r.db.Collection(activitiesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []activityDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode activities: %w", err)
	}

	out := make([]models.Activity, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.joined())
	}
	return out, nil
}

// InsertActivity appends an activity row.
func (r *MongoDBRepository) InsertActivity(ctx context.Context, in models.ActivityInput) (models.Activity, error) {
	row := in.NewActivity(uuid.NewString(), r.now())
	if err := row.Validate(); err != nil {
		return models.Activity{}, err
	}
	if _, err := r.db.Collection(activitiesCollection).InsertOne(ctx, row); err != nil {
		return models.Activity{}, fmt.Errorf("failed to insert activity: %w", err)
	}
	return row, nil
}

// SubscribeActivityInserts opens a change stream filtered to inserts on the
// activities collection. A broken stream is not resumed.
func (r *MongoDBRepository) SubscribeActivityInserts(ctx context.Context) (repository.Subscription, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}},
	}
	stream, err := r.db.Collection(activitiesCollection).Watch(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to watch activities: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	sub := &changeStreamSubscription{
		events: make(chan models.Activity),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go sub.pump(streamCtx, stream, r.logger)
	return sub, nil
}

type changeStreamSubscription struct {
	events chan models.Activity
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *changeStreamSubscription) Events() <-chan models.Activity { return s.events }

func (s *changeStreamSubscription) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

func (s *changeStreamSubscription) pump(ctx context.Context, stream *mongo.ChangeStream, logger *zap.Logger) {
	defer close(s.done)
	defer close(s.events)
	defer func() { _ = stream.Close(context.Background()) }()

	for stream.Next(ctx) {
		var event struct {
			FullDocument models.Activity `bson:"fullDocument"`
		}
		if err := stream.Decode(&event); err != nil {
			logger.Warn("skip undecodable activity change", zap.Error(err))
			continue
		}

		select {
		case s.events <- event.FullDocument:
		case <-ctx.Done():
			return
		}
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		logger.Error("activity change stream stopped", zap.Error(err))
	}
}
