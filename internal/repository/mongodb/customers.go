package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository"
)

// ListCustomers returns all customers newest first.
func (r *MongoDBRepository) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.db.Collection(customersCollection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.Customer
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode customers: %w", err)
	}
	return rows, nil
}

// CustomerTotals groups shipments by owning customer in a single pipeline.
func (r *MongoDBRepository) CustomerTotals(ctx context.Context) (map[string]models.CustomerTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "customer_id", Value: bson.D{{Key: "$nin", Value: bson.A{nil, ""}}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$customer_id"},
			{Key: "shipments", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "value", Value: bson.D{{Key: "$sum", Value: "$value"}}},
		}}},
	}

	cursor, err := r.db.Collection(shipmentsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate customer totals: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.CustomerTotals
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode customer totals: %w", err)
	}

	totals := make(map[string]models.CustomerTotals, len(rows))
	for _, t := range rows {
		totals[t.CustomerID] = t
	}
	return totals, nil
}

// InsertCustomer stores a new customer.
func (r *MongoDBRepository) InsertCustomer(ctx context.Context, in models.CustomerInput) (models.Customer, error) {
	row := in.NewCustomer(uuid.NewString(), r.now())
	if err := row.Validate(); err != nil {
		return models.Customer{}, err
	}
	if _, err := r.db.Collection(customersCollection).InsertOne(ctx, row); err != nil {
		return models.Customer{}, fmt.Errorf("failed to insert customer: %w", err)
	}
	return row, nil
}

// UpdateCustomer applies a partial update and returns the updated row.
func (r *MongoDBRepository) UpdateCustomer(ctx context.Context, id string, patch models.CustomerPatch) (models.Customer, error) {
	if err := patch.Validate(); err != nil {
		return models.Customer{}, err
	}

	set := customerSet(patch)
	set = append(set, bson.E{Key: "updated_at", Value: r.now()})

	var row models.Customer
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.db.Collection(customersCollection).
		FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}}, opts).
		Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Customer{}, fmt.Errorf("customer %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return models.Customer{}, fmt.Errorf("failed to update customer %s: %w", id, err)
	}
	return row, nil
}

// DeleteCustomer removes the customer and the shipments it owns in one
// transaction, so a failed cascade leaves both untouched.
func (r *MongoDBRepository) DeleteCustomer(ctx context.Context, id string) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, r.deleteCustomerCascade(sc, id)
	})
	return err
}

func (r *MongoDBRepository) deleteCustomerCascade(ctx context.Context, id string) error {
	res, err := r.db.Collection(customersCollection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete customer %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("customer %s: %w", id, repository.ErrNotFound)
	}

	cascade, err := r.db.Collection(shipmentsCollection).DeleteMany(ctx, bson.D{{Key: "customer_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete shipments of customer %s: %w", id, err)
	}
	if cascade.DeletedCount > 0 {
		r.logger.Debug("cascaded customer shipments", zap.String("customer_id", id), zap.Int64("deleted", cascade.DeletedCount))
	}
	return nil
}

func customerSet(p models.CustomerPatch) bson.D {
	var set bson.D
	add := func(key string, value any) { set = append(set, bson.E{Key: key, Value: value}) }

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Email != nil {
		add("email", *p.Email)
	}
	if p.Phone != nil {
		add("phone", *p.Phone)
	}
	if p.Company != nil {
		add("company", *p.Company)
	}
	if p.Address != nil {
		add("address", *p.Address)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	return set
}
