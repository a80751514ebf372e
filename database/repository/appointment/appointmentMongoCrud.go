package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Create inserts a new appointment document after re-checking that the
// doctor's interval is free. The soft reservation already serializes
// concurrent booking flows; this check backstops it at the storage layer.
func (repo *MongoAppointmentRepo) Create(ctx context.Context, appt *models.Appointment) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"doctor_id":    appt.DoctorID,
		"status":       bson.M{"$in": activeStatuses},
		"scheduled_at": bson.M{"$lt": appt.EndTime},
		"end_time":     bson.M{"$gt": appt.ScheduledAt},
	}
	count, err := repo.coll.CountDocuments(ctxWithTimeout, filter)
	if err != nil {
		return fmt.Errorf("error checking overlap for doctor %s: %w", appt.DoctorID, err)
	}
	if count > 0 {
		return ErrOverlap
	}

	if _, err := repo.coll.InsertOne(ctxWithTimeout, appt); err != nil {
		return fmt.Errorf("error creating appointment: %w", err)
	}
	return nil
}

// CreateOverbooked inserts without the overlap guard, for deliberate
// emergency overbooking.
func (repo *MongoAppointmentRepo) CreateOverbooked(ctx context.Context, appt *models.Appointment) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctxWithTimeout, appt); err != nil {
		return fmt.Errorf("error creating overbooked appointment: %w", err)
	}
	return nil
}

// GetByID retrieves an appointment by its ID.
func (repo *MongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appt models.Appointment
	err := repo.coll.FindOne(ctxWithTimeout, bson.M{"id": id}).Decode(&appt)
	if err != nil {
		return nil, fmt.Errorf("appointment not found: %w", err)
	}
	return &appt, nil
}

// Update replaces the stored document for the appointment.
func (repo *MongoAppointmentRepo) Update(ctx context.Context, appt *models.Appointment) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	appt.UpdatedAt = time.Now()
	filter := bson.M{"id": appt.ID}
	update := bson.M{"$set": appt}
	if _, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update); err != nil {
		return fmt.Errorf("error updating appointment %s: %w", appt.ID, err)
	}
	return nil
}

// UpdateStatus transitions only the status field.
func (repo *MongoAppointmentRepo) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}
	res, err := repo.coll.UpdateOne(ctxWithTimeout, filter, update)
	if err != nil {
		return fmt.Errorf("error updating status for appointment %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("appointment %s not found", id)
	}
	return nil
}
