package models

import "time"

// QueueEntryStatus is the waitlist entry lifecycle.
type QueueEntryStatus string

const (
	QueueActive         QueueEntryStatus = "ACTIVE"
	QueueOffered        QueueEntryStatus = "OFFERED"
	QueueAutoBooked     QueueEntryStatus = "AUTO_BOOKED"
	QueueManuallyBooked QueueEntryStatus = "MANUALLY_BOOKED"
	QueueExpired        QueueEntryStatus = "EXPIRED"
	QueueWithdrawn      QueueEntryStatus = "WITHDRAWN"
)

// PatientClass feeds the waitlist base priority.
type PatientClass string

const (
	ClassVIP     PatientClass = "VIP"
	ClassRegular PatientClass = "REGULAR"
	ClassNew     PatientClass = "NEW"
)

// QueueEntry is a patient request parked because no immediate slot satisfied
// their criteria. Entries live in a priority-ordered structure keyed by
// (specialty, doctor) and leave it on booking, expiry, or withdrawal.
type QueueEntry struct {
	ID              string           `json:"id"`
	PatientID       string           `json:"patientId"`
	DoctorID        string           `json:"doctorId,omitempty"` // empty means any doctor
	SpecialtyID     string           `json:"specialtyId"`
	AppointmentType AppointmentType  `json:"appointmentType"`
	Priority        float64          `json:"priority"`
	PreferredDates  []string         `json:"preferredDates,omitempty"` // "YYYY-MM-DD"
	PreferredTimes  []string         `json:"preferredTimes,omitempty"` // "HH:MM"
	MaxWaitDays     int              `json:"maxWaitDays"`
	UrgencyLevel    int              `json:"urgencyLevel"`
	PatientClass    PatientClass     `json:"patientClass"`
	Status          QueueEntryStatus `json:"status"`
	AutoBook        bool             `json:"autoBook"`
	BookingAttempts int              `json:"bookingAttempts"`
	OfferSlotID     string           `json:"offerSlotId,omitempty"`
	OfferExpiresAt  *time.Time       `json:"offerExpiresAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// WaitDuration returns how long the entry has been queued as of now.
func (e QueueEntry) WaitDuration(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// Expired reports whether the entry has outlived its maximum wait.
func (e QueueEntry) Expired(now time.Time) bool {
	if e.MaxWaitDays <= 0 {
		return false
	}
	return now.Sub(e.CreatedAt) > time.Duration(e.MaxWaitDays)*24*time.Hour
}
