package resourceRepo

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoResourceRepo is the MongoDB-backed implementation.
type MongoResourceRepo struct {
	roomColl      *mongo.Collection
	equipmentColl *mongo.Collection
	bookingColl   *mongo.Collection
}

// NewMongoResourceRepo builds the repository against the injected database.
func NewMongoResourceRepo(db *mongo.Database) *MongoResourceRepo {
	return &MongoResourceRepo{
		roomColl:      db.Collection("rooms"),
		equipmentColl: db.Collection("equipment"),
		bookingColl:   db.Collection("resource_bookings"),
	}
}

// ListRooms returns active rooms of the given type.
func (repo *MongoResourceRepo) ListRooms(ctx context.Context, roomType models.RoomType) ([]models.Room, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := repo.roomColl.Find(ctxWithTimeout, bson.M{"type": roomType, "active": true})
	if err != nil {
		return nil, fmt.Errorf("error listing rooms of type %s: %w", roomType, err)
	}
	defer cursor.Close(ctxWithTimeout)

	var rooms []models.Room
	if err := cursor.All(ctxWithTimeout, &rooms); err != nil {
		return nil, fmt.Errorf("error decoding rooms: %w", err)
	}
	return rooms, nil
}

// ListEquipmentByKinds returns active equipment matching any requested kind.
func (repo *MongoResourceRepo) ListEquipmentByKinds(ctx context.Context, kinds []string) ([]models.Equipment, error) {
	if len(kinds) == 0 {
		return nil, nil
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := repo.equipmentColl.Find(ctxWithTimeout, bson.M{"kind": bson.M{"$in": kinds}, "active": true})
	if err != nil {
		return nil, fmt.Errorf("error listing equipment: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var equipment []models.Equipment
	if err := cursor.All(ctxWithTimeout, &equipment); err != nil {
		return nil, fmt.Errorf("error decoding equipment: %w", err)
	}
	return equipment, nil
}

// CreateBooking persists a resource booking.
func (repo *MongoResourceRepo) CreateBooking(ctx context.Context, booking *models.ResourceBooking) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.bookingColl.InsertOne(ctxWithTimeout, booking); err != nil {
		return fmt.Errorf("error creating resource booking: %w", err)
	}
	return nil
}

// UpdateBookingStatus transitions a booking's lifecycle state.
func (repo *MongoResourceRepo) UpdateBookingStatus(ctx context.Context, id string, status models.ResourceBookingStatus) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id}
	update := bson.M{"$set": bson.M{"status": status}}
	if _, err := repo.bookingColl.UpdateOne(ctxWithTimeout, filter, update); err != nil {
		return fmt.Errorf("error updating resource booking %s: %w", id, err)
	}
	return nil
}

// ReleaseByAppointment cancels the booking tied to an appointment. Idempotent.
func (repo *MongoResourceRepo) ReleaseByAppointment(ctx context.Context, appointmentID string) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"appointment_id": appointmentID, "status": bson.M{"$in": []string{"RESERVED", "IN_USE"}}}
	update := bson.M{"$set": bson.M{"status": models.ResourceCancelled}}
	if _, err := repo.bookingColl.UpdateMany(ctxWithTimeout, filter, update); err != nil {
		return fmt.Errorf("error releasing resources for appointment %s: %w", appointmentID, err)
	}
	return nil
}

// ListBookingsOverlapping returns held bookings whose windows intersect the
// range. The stored start/end already exclude buffers, so the query widens
// the range by the largest plausible buffer and callers re-test precisely
// with OccupiedWindow.
func (repo *MongoResourceRepo) ListBookingsOverlapping(ctx context.Context, start, end time.Time) ([]models.ResourceBooking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const maxBuffer = 2 * time.Hour
	filter := bson.M{
		"status": bson.M{"$in": []string{"RESERVED", "IN_USE"}},
		"start":  bson.M{"$lt": end.Add(maxBuffer)},
		"end":    bson.M{"$gt": start.Add(-maxBuffer)},
	}
	cursor, err := repo.bookingColl.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing resource bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.ResourceBooking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding resource bookings: %w", err)
	}
	return bookings, nil
}

// CountBookingsInRange aggregates booking counts per room for utilization.
func (repo *MongoResourceRepo) CountBookingsInRange(ctx context.Context, start, end time.Time) (map[string]int, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{"$match": bson.M{
			"start":   bson.M{"$lt": end},
			"end":     bson.M{"$gt": start},
			"room_id": bson.M{"$ne": ""},
		}},
		{"$group": bson.M{"_id": "$room_id", "count": bson.M{"$sum": 1}}},
	}
	cursor, err := repo.bookingColl.Aggregate(ctxWithTimeout, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating resource utilization: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	counts := make(map[string]int)
	for cursor.Next(ctxWithTimeout) {
		var row struct {
			RoomID string `bson:"_id"`
			Count  int    `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("error decoding utilization row: %w", err)
		}
		counts[row.RoomID] = row.Count
	}
	return counts, cursor.Err()
}
