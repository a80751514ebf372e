package models

import "time"

// BreakWindow is a recurring non-bookable stretch inside a working day,
// expressed in minutes from midnight.
type BreakWindow struct {
	Start int    `bson:"start" json:"start"`
	End   int    `bson:"end" json:"end"`
	Label string `bson:"label,omitempty" json:"label,omitempty"` // e.g. "lunch"
}

// AvailabilityTemplate is one weekday's recurring working window for a
// doctor. Slot generation steps through [Start, End) by SlotDurationMin.
type AvailabilityTemplate struct {
	Weekday         time.Weekday  `bson:"weekday" json:"weekday"`
	Start           int           `bson:"start" json:"start"` // minutes from midnight
	End             int           `bson:"end" json:"end"`     // minutes from midnight
	SlotDurationMin int           `bson:"slot_duration_min" json:"slotDurationMin"`
	Breaks          []BreakWindow `bson:"breaks,omitempty" json:"breaks,omitempty"`
	Active          bool          `bson:"active" json:"active"`
}

// Doctor is the provider whose time the engine schedules.
type Doctor struct {
	ID                 string                 `bson:"id" json:"id"`
	Name               string                 `bson:"name" json:"name"`
	SpecialtyID        string                 `bson:"specialty_id" json:"specialtyId"`
	Active             bool                   `bson:"active" json:"active"`
	AcceptingPatients  bool                   `bson:"accepting_patients" json:"acceptingPatients"`
	WeeklyAvailability []AvailabilityTemplate `bson:"weekly_availability" json:"weeklyAvailability"`
	ConsultationFee    float64                `bson:"consultation_fee" json:"consultationFee"`
}

// TemplateFor returns the active availability template for the given
// weekday, or nil when the doctor does not work that day.
func (d Doctor) TemplateFor(day time.Weekday) *AvailabilityTemplate {
	for i := range d.WeeklyAvailability {
		t := &d.WeeklyAvailability[i]
		if t.Weekday == day && t.Active {
			return t
		}
	}
	return nil
}
