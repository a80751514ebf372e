package models

import "time"

// RoomType classifies clinic rooms for allocation.
type RoomType string

const (
	RoomConsultation RoomType = "CONSULTATION"
	RoomEmergencyBay RoomType = "EMERGENCY"
	RoomRadiology    RoomType = "RADIOLOGY"
	RoomProcedure    RoomType = "PROCEDURE"
)

// MaintenanceWindow blocks a resource for upkeep.
type MaintenanceWindow struct {
	Start  time.Time `bson:"start" json:"start"`
	End    time.Time `bson:"end" json:"end"`
	Reason string    `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Room is a bookable physical space.
type Room struct {
	ID                 string              `bson:"id" json:"id"`
	Name               string              `bson:"name" json:"name"`
	Type               RoomType            `bson:"type" json:"type"`
	Active             bool                `bson:"active" json:"active"`
	CleaningBufferMin  int                 `bson:"cleaning_buffer_min" json:"cleaningBufferMin"`
	MaintenanceWindows []MaintenanceWindow `bson:"maintenance_windows,omitempty" json:"maintenanceWindows,omitempty"`
}

// Equipment is a bookable device (imaging, monitors, etc).
type Equipment struct {
	ID                 string              `bson:"id" json:"id"`
	Name               string              `bson:"name" json:"name"`
	Kind               string              `bson:"kind" json:"kind"` // e.g. "xray", "ultrasound", "ecg"
	Imaging            bool                `bson:"imaging" json:"imaging"`
	Active             bool                `bson:"active" json:"active"`
	CleaningBufferMin  int                 `bson:"cleaning_buffer_min" json:"cleaningBufferMin"`
	MaintenanceWindows []MaintenanceWindow `bson:"maintenance_windows,omitempty" json:"maintenanceWindows,omitempty"`
}

// ResourceBookingStatus is the allocation lifecycle.
type ResourceBookingStatus string

const (
	ResourceReserved  ResourceBookingStatus = "RESERVED"
	ResourceInUse     ResourceBookingStatus = "IN_USE"
	ResourceCompleted ResourceBookingStatus = "COMPLETED"
	ResourceCancelled ResourceBookingStatus = "CANCELLED"
)

// ResourceBooking ties rooms and equipment to an appointment interval,
// cleaning buffer included.
type ResourceBooking struct {
	ID            string                `bson:"id" json:"id"`
	AppointmentID string                `bson:"appointment_id" json:"appointmentId"`
	RoomID        string                `bson:"room_id,omitempty" json:"roomId,omitempty"`
	EquipmentIDs  []string              `bson:"equipment_ids,omitempty" json:"equipmentIds,omitempty"`
	Start         time.Time             `bson:"start" json:"start"`
	End           time.Time             `bson:"end" json:"end"`
	BufferBefore  int                   `bson:"buffer_before" json:"bufferBefore"` // minutes
	BufferAfter   int                   `bson:"buffer_after" json:"bufferAfter"`   // minutes
	Status        ResourceBookingStatus `bson:"status" json:"status"`
	CreatedAt     time.Time             `bson:"created_at" json:"createdAt"`
}

// OccupiedWindow returns the booking interval widened by its buffers.
func (b ResourceBooking) OccupiedWindow() (time.Time, time.Time) {
	return b.Start.Add(-time.Duration(b.BufferBefore) * time.Minute),
		b.End.Add(time.Duration(b.BufferAfter) * time.Minute)
}

// ResourceAllocation is the outcome of allocating resources to a slot.
type ResourceAllocation struct {
	RoomID          string   `json:"roomId,omitempty"`
	EquipmentIDs    []string `json:"equipmentIds,omitempty"`
	AllocationScore float64  `json:"allocationScore"`
	EfficiencyScore float64  `json:"efficiencyScore"`
	BufferBefore    int      `json:"bufferBefore"`
	BufferAfter     int      `json:"bufferAfter"`
}
