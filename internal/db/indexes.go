package db

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/vehicle-rentals/internal/models"
)

// EnsureIndexes creates the rental and vehicle indexes. The TTL index on
// returned rentals expires archived records after retentionDays; pass 0 to
// skip it.
func EnsureIndexes(ctx context.Context, database *mongo.Database, retentionDays int) error {
	rentals := database.Collection("rentals")

	rentalIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "vehicle_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_vehicle_status"),
		},
		{
			Keys:    bson.D{{Key: "start_at", Value: 1}, {Key: "end_at", Value: 1}},
			Options: options.Index().SetName("idx_rental_period"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_user"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_status_created"),
		},
	}

	if retentionDays > 0 {
		rentalIndexes = append(rentalIndexes, mongo.IndexModel{
			Keys: bson.D{{Key: "end_at", Value: 1}},
			Options: options.Index().
				SetName("idx_retention_ttl").
				SetExpireAfterSeconds(int32(retentionDays * 24 * 60 * 60)).
				SetPartialFilterExpression(bson.M{"status": models.RentalStatusReturned}),
		})
	}

	if _, err := rentals.Indexes().CreateMany(ctx, rentalIndexes); err != nil {
		return fmt.Errorf("failed to create rental indexes: %w", err)
	}

	vehicles := database.Collection("vehicles")

	vehicleIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_vehicle_status"),
		},
		{
			Keys:    bson.D{{Key: "plate", Value: 1}},
			Options: options.Index().SetName("idx_plate_unique").SetUnique(true),
		},
	}

	if _, err := vehicles.Indexes().CreateMany(ctx, vehicleIndexes); err != nil {
		return fmt.Errorf("failed to create vehicle indexes: %w", err)
	}

	log.Info("MongoDB indexes created successfully")
	return nil
}
