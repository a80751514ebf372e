package appointmentRepo

import (
	"context"
	"time"

	"clinicore/models"
)

// AppointmentRepository defines the data access methods used by the
// scheduling engine and the appointment orchestrator.
type AppointmentRepository interface {
	// Create persists a new appointment. It re-checks doctor overlap inside
	// the write path as defense-in-depth behind the soft reservation and
	// returns ErrOverlap when the interval is already taken.
	Create(ctx context.Context, appt *models.Appointment) error
	// CreateOverbooked persists an appointment without the overlap guard.
	// Used only for deliberate last-resort overbooking of emergencies.
	CreateOverbooked(ctx context.Context, appt *models.Appointment) error
	// GetByID retrieves an appointment by its ID.
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	// Update replaces mutable fields of an existing appointment.
	Update(ctx context.Context, appt *models.Appointment) error
	// UpdateStatus transitions status only, stamping UpdatedAt.
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error
	// ListActiveByDoctorRange returns active appointments for a doctor whose
	// intervals intersect [start, end).
	ListActiveByDoctorRange(ctx context.Context, doctorID string, start, end time.Time) ([]models.Appointment, error)
	// ListActiveByPatient returns the patient's active appointments.
	ListActiveByPatient(ctx context.Context, patientID string) ([]models.Appointment, error)
	// CountVisits returns how many completed visits the patient has had with
	// the doctor (prior-history check for closed panels).
	CountVisits(ctx context.Context, patientID, doctorID string) (int, error)
	// ListUpcomingEmergencies returns active emergency appointments starting
	// within the window, for the background monitor.
	ListUpcomingEmergencies(ctx context.Context, until time.Time) ([]models.Appointment, error)
}
