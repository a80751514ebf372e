package resourceRepo

import (
	"context"
	"time"

	"clinicore/models"
)

// ResourceRepository exposes room/equipment catalogs and their bookings.
type ResourceRepository interface {
	// ListRooms returns active rooms of the given type.
	ListRooms(ctx context.Context, roomType models.RoomType) ([]models.Room, error)
	// ListEquipmentByKinds returns active equipment matching any of the
	// requested kinds.
	ListEquipmentByKinds(ctx context.Context, kinds []string) ([]models.Equipment, error)
	// CreateBooking persists a resource booking.
	CreateBooking(ctx context.Context, booking *models.ResourceBooking) error
	// UpdateBookingStatus transitions a booking's lifecycle state.
	UpdateBookingStatus(ctx context.Context, id string, status models.ResourceBookingStatus) error
	// ReleaseByAppointment cancels the booking tied to an appointment.
	// Releasing an appointment with no booking is a no-op.
	ReleaseByAppointment(ctx context.Context, appointmentID string) error
	// ListBookingsOverlapping returns reserved or in-use bookings whose
	// buffered windows intersect [start, end).
	ListBookingsOverlapping(ctx context.Context, start, end time.Time) ([]models.ResourceBooking, error)
	// CountBookingsInRange returns the number of bookings touching the range,
	// per room, for utilization reporting.
	CountBookingsInRange(ctx context.Context, start, end time.Time) (map[string]int, error)
}
