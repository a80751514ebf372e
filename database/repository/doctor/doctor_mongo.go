package doctorRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoDoctorRepo is the MongoDB-backed implementation.
type MongoDoctorRepo struct {
	doctorColl    *mongo.Collection
	specialtyColl *mongo.Collection
}

// NewMongoDoctorRepo builds the repository against the injected database.
func NewMongoDoctorRepo(db *mongo.Database) *MongoDoctorRepo {
	return &MongoDoctorRepo{
		doctorColl:    db.Collection("doctors"),
		specialtyColl: db.Collection("specialties"),
	}
}

// GetByID retrieves a doctor by its unique ID.
func (repo *MongoDoctorRepo) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc models.Doctor
	if err := repo.doctorColl.FindOne(ctxWithTimeout, bson.M{"id": id}).Decode(&doc); err != nil {
		return nil, fmt.Errorf("doctor not found: %w", err)
	}
	return &doc, nil
}

// ListBySpecialty returns active doctors in a specialty.
func (repo *MongoDoctorRepo) ListBySpecialty(ctx context.Context, specialtyID string, acceptingOnly bool) ([]models.Doctor, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"specialty_id": specialtyID,
		"active":       true,
	}
	if acceptingOnly {
		filter["accepting_patients"] = true
	}
	cursor, err := repo.doctorColl.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing doctors for specialty %s: %w", specialtyID, err)
	}
	defer cursor.Close(ctxWithTimeout)

	var doctors []models.Doctor
	if err := cursor.All(ctxWithTimeout, &doctors); err != nil {
		return nil, fmt.Errorf("error decoding doctors: %w", err)
	}
	return doctors, nil
}

// ListActive returns every active doctor.
func (repo *MongoDoctorRepo) ListActive(ctx context.Context) ([]models.Doctor, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := repo.doctorColl.Find(ctxWithTimeout, bson.M{"active": true})
	if err != nil {
		return nil, fmt.Errorf("error listing active doctors: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var doctors []models.Doctor
	if err := cursor.All(ctxWithTimeout, &doctors); err != nil {
		return nil, fmt.Errorf("error decoding doctors: %w", err)
	}
	return doctors, nil
}

// GetSpecialty retrieves a specialty definition.
func (repo *MongoDoctorRepo) GetSpecialty(ctx context.Context, id string) (*models.Specialty, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var spec models.Specialty
	if err := repo.specialtyColl.FindOne(ctxWithTimeout, bson.M{"id": id}).Decode(&spec); err != nil {
		return nil, fmt.Errorf("specialty not found: %w", err)
	}
	return &spec, nil
}
