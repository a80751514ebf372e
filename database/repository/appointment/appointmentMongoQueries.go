package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListActiveByDoctorRange returns active appointments for the doctor whose
// half-open intervals intersect [start, end), ordered by start time.
func (repo *MongoAppointmentRepo) ListActiveByDoctorRange(ctx context.Context, doctorID string, start, end time.Time) ([]models.Appointment, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"doctor_id":    doctorID,
		"status":       bson.M{"$in": activeStatuses},
		"scheduled_at": bson.M{"$lt": end},
		"end_time":     bson.M{"$gt": start},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})
	cursor, err := repo.coll.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing appointments for doctor %s: %w", doctorID, err)
	}
	defer cursor.Close(ctxWithTimeout)

	var appts []models.Appointment
	if err := cursor.All(ctxWithTimeout, &appts); err != nil {
		return nil, fmt.Errorf("error decoding appointments: %w", err)
	}
	return appts, nil
}

// ListActiveByPatient returns the patient's active appointments.
func (repo *MongoAppointmentRepo) ListActiveByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"patient_id": patientID,
		"status":     bson.M{"$in": activeStatuses},
	}
	cursor, err := repo.coll.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing appointments for patient %s: %w", patientID, err)
	}
	defer cursor.Close(ctxWithTimeout)

	var appts []models.Appointment
	if err := cursor.All(ctxWithTimeout, &appts); err != nil {
		return nil, fmt.Errorf("error decoding appointments: %w", err)
	}
	return appts, nil
}

// CountVisits counts completed visits between the patient and the doctor.
func (repo *MongoAppointmentRepo) CountVisits(ctx context.Context, patientID, doctorID string) (int, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"patient_id": patientID,
		"doctor_id":  doctorID,
		"status":     models.StatusCompleted,
	}
	count, err := repo.coll.CountDocuments(ctxWithTimeout, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting visits: %w", err)
	}
	return int(count), nil
}

// ListUpcomingEmergencies returns active emergency appointments starting
// before the given deadline, for the escalation monitor.
func (repo *MongoAppointmentRepo) ListUpcomingEmergencies(ctx context.Context, until time.Time) ([]models.Appointment, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"type":         models.AppointmentEmergency,
		"status":       bson.M{"$in": []string{"SCHEDULED", "CONFIRMED"}},
		"scheduled_at": bson.M{"$lte": until},
	}
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})
	cursor, err := repo.coll.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing upcoming emergencies: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var appts []models.Appointment
	if err := cursor.All(ctxWithTimeout, &appts); err != nil {
		return nil, fmt.Errorf("error decoding emergencies: %w", err)
	}
	return appts, nil
}
