package appointmentRepo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrOverlap is returned when a create would double-book a doctor.
var ErrOverlap = errors.New("appointment interval overlaps an existing active appointment")

// MongoAppointmentRepo is the MongoDB-backed implementation.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo builds the repository against the injected database.
func NewMongoAppointmentRepo(db *mongo.Database) *MongoAppointmentRepo {
	return &MongoAppointmentRepo{coll: db.Collection("appointments")}
}

var activeStatuses = []string{"SCHEDULED", "CONFIRMED", "IN_PROGRESS"}
