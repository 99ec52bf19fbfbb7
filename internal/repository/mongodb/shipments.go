package mongodb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/logidash/internal/domain/models"
	"github.com/mamadbah2/logidash/internal/repository"
)

// shipmentDoc is a shipment decoded together with its $lookup result.
type shipmentDoc struct {
	models.Shipment `bson:",inline"`
	Customers       []models.Customer `bson:"customer"`
}

func (d shipmentDoc) joined() models.Shipment {
	s := d.Shipment
	if len(d.Customers) > 0 {
		c := d.Customers[0]
		s.Customer = &c
	}
	return s
}

var lookupCustomer = bson.D{{Key: "$lookup", Value: bson.D{
	{Key: "from", Value: customersCollection},
	{Key: "localField", Value: "customer_id"},
	{Key: "foreignField", Value: "_id"},
	{Key: "as", Value: "customer"},
}}}

// ListShipments returns all shipments newest first joined with their customer.
func (r *MongoDBRepository) ListShipments(ctx context.Context) ([]models.Shipment, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		lookupCustomer,
	}
	return r.aggregateShipments(ctx, pipeline)
}

// InsertShipment stores a new shipment and returns it joined with its customer.
func (r *MongoDBRepository) InsertShipment(ctx context.Context, in models.ShipmentInput) (models.Shipment, error) {
	row := in.NewShipment(uuid.NewString(), r.now())
	if err := row.Validate(); err != nil {
		return models.Shipment{}, err
	}

	if _, err := r.db.Collection(shipmentsCollection).InsertOne(ctx, row); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Shipment{}, fmt.Errorf("%w: shipment reference %q already exists", models.ErrInvalidRecord, row.Reference)
		}
		return models.Shipment{}, fmt.Errorf("failed to insert shipment: %w", err)
	}
	return r.FindShipment(ctx, row.ID)
}

// UpdateShipment applies a partial update and returns the joined row.
func (r *MongoDBRepository) UpdateShipment(ctx context.Context, id string, patch models.ShipmentPatch) (models.Shipment, error) {
	if err := patch.Validate(); err != nil {
		return models.Shipment{}, err
	}

	set := shipmentSet(patch)
	set = append(set, bson.E{Key: "updated_at", Value: r.now()})

	res, err := r.db.Collection(shipmentsCollection).UpdateByID(ctx, id, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Shipment{}, fmt.Errorf("%w: shipment reference already exists", models.ErrInvalidRecord)
		}
		return models.Shipment{}, fmt.Errorf("failed to update shipment %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return models.Shipment{}, fmt.Errorf("shipment %s: %w", id, repository.ErrNotFound)
	}
	return r.FindShipment(ctx, id)
}

// DeleteShipment removes a shipment by identity.
func (r *MongoDBRepository) DeleteShipment(ctx context.Context, id string) error {
	res, err := r.db.Collection(shipmentsCollection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete shipment %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("shipment %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// FindShipment returns one shipment joined with its customer.
func (r *MongoDBRepository) FindShipment(ctx context.Context, id string) (models.Shipment, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: id}}}},
		lookupCustomer,
	}
	rows, err := r.aggregateShipments(ctx, pipeline)
	if err != nil {
		return models.Shipment{}, err
	}
	if len(rows) == 0 {
		return models.Shipment{}, fmt.Errorf("shipment %s: %w", id, repository.ErrNotFound)
	}
	return rows[0], nil
}

func (r *MongoDBRepository) aggregateShipments(ctx context.Context, pipeline mongo.Pipeline) ([]models.Shipment, error) {
	cursor, err := r.db.Collection(shipmentsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to query shipments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []shipmentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode shipments: %w", err)
	}

	out := make([]models.Shipment, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.joined())
	}
	return out, nil
}

func shipmentSet(p models.ShipmentPatch) bson.D {
	var set bson.D
	add := func(key string, value any) { set = append(set, bson.E{Key: key, Value: value}) }

	if p.Reference != nil {
		add("reference", *p.Reference)
	}
	if p.CustomerID != nil {
		add("customer_id", *p.CustomerID)
	}
	if p.Origin != nil {
		add("origin", *p.Origin)
	}
	if p.Destination != nil {
		add("destination", *p.Destination)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.Type != nil {
		add("type", *p.Type)
	}
	if p.Value != nil {
		add("value", *p.Value)
	}
	if p.Weight != nil {
		add("weight", *p.Weight)
	}
	if p.EstimatedDelivery != nil {
		add("estimated_delivery", *p.EstimatedDelivery)
	}
	if p.ActualDelivery != nil {
		add("actual_delivery", *p.ActualDelivery)
	}
	if p.Carrier != nil {
		add("carrier", *p.Carrier)
	}
	return set
}
