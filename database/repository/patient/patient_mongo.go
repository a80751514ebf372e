package patientRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoPatientRepo is the MongoDB-backed implementation.
type MongoPatientRepo struct {
	coll *mongo.Collection
}

// NewMongoPatientRepo builds the repository against the injected database.
func NewMongoPatientRepo(db *mongo.Database) *MongoPatientRepo {
	return &MongoPatientRepo{coll: db.Collection("patients")}
}

// GetByID retrieves a patient by its unique ID.
func (repo *MongoPatientRepo) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Patient
	if err := repo.coll.FindOne(ctxWithTimeout, bson.M{"id": id}).Decode(&p); err != nil {
		return nil, fmt.Errorf("patient not found: %w", err)
	}
	return &p, nil
}

// IncrementNoShow bumps the strike counter and suspends the account when the
// limit is reached.
func (repo *MongoPatientRepo) IncrementNoShow(ctx context.Context, id string, suspendAt int) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p, err := repo.GetByID(ctxWithTimeout, id)
	if err != nil {
		return err
	}

	update := bson.M{"$inc": bson.M{"no_show_count": 1}}
	if p.NoShowCount+1 >= suspendAt {
		update["$set"] = bson.M{"suspended": true}
	}
	if _, err := repo.coll.UpdateOne(ctxWithTimeout, bson.M{"id": id}, update); err != nil {
		return fmt.Errorf("error incrementing no-show count for patient %s: %w", id, err)
	}
	return nil
}
