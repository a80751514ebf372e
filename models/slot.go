package models

import (
	"fmt"
	"time"
)

// SlotType classifies how a candidate slot was produced.
type SlotType string

const (
	SlotRegular   SlotType = "REGULAR"
	SlotEmergency SlotType = "EMERGENCY"
	SlotOverflow  SlotType = "OVERFLOW"
)

// AvailableSlot is a candidate, not-yet-booked interval for a doctor. Slots
// are computed on demand and optionally cached with a short TTL; they are
// never the system of record for booked time.
type AvailableSlot struct {
	ID               string    `json:"id"` // doctorID:startRFC3339 composite
	DoctorID         string    `json:"doctorId"`
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	DurationMinutes  int       `json:"durationMinutes"`
	IsOptimal        bool      `json:"isOptimal"`
	Confidence       float64   `json:"confidence"` // 0-1
	RoomID           string    `json:"roomId,omitempty"`
	EquipmentIDs     []string  `json:"equipmentIds,omitempty"`
	BufferBefore     int       `json:"bufferBefore,omitempty"` // minutes
	BufferAfter      int       `json:"bufferAfter,omitempty"`  // minutes
	SlotType         SlotType  `json:"slotType"`
	UtilizationScore float64   `json:"utilizationScore,omitempty"`
	PreferenceMatch  float64   `json:"preferenceMatch,omitempty"`
}

// SlotID builds the composite identity used for caching and reservations.
func SlotID(doctorID string, start time.Time) string {
	return fmt.Sprintf("%s:%s", doctorID, start.UTC().Format(time.RFC3339))
}

// Overlaps reports whether the slot's half-open interval [Start, End)
// intersects [otherStart, otherEnd).
func (s AvailableSlot) Overlaps(otherStart, otherEnd time.Time) bool {
	return s.Start.Before(otherEnd) && s.End.After(otherStart)
}
