package resource

import (
	"context"
	"fmt"
	"time"

	resourceRepo "clinicore/database/repository/resource"
	"clinicore/models"
	"clinicore/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultResourceManager is the production implementation.
type DefaultResourceManager struct {
	Repo resourceRepo.ResourceRepository
}

// NewDefaultResourceManager wires the manager with its repository.
func NewDefaultResourceManager(repo resourceRepo.ResourceRepository) *DefaultResourceManager {
	return &DefaultResourceManager{Repo: repo}
}

// RequiredRoomType derives the room class from the appointment type and the
// equipment it needs: emergencies take the emergency bay, imaging work goes
// to radiology, procedures to a procedure room, everything else to a
// consultation room.
func RequiredRoomType(criteria models.SchedulingCriteria, equipment []models.Equipment) models.RoomType {
	if criteria.AppointmentType == models.AppointmentEmergency || criteria.Emergency {
		return models.RoomEmergencyBay
	}
	for _, eq := range equipment {
		if eq.Imaging {
			return models.RoomRadiology
		}
	}
	if criteria.AppointmentType == models.AppointmentProcedure {
		return models.RoomProcedure
	}
	return models.RoomConsultation
}

// Allocate picks the first feasible room and equipment set for the window.
func (m *DefaultResourceManager) Allocate(ctx context.Context, criteria models.SchedulingCriteria, start, end time.Time) (*models.ResourceAllocation, error) {
	equipment, err := m.Repo.ListEquipmentByKinds(ctx, criteria.RequiredEquipment)
	if err != nil {
		return nil, fmt.Errorf("loading equipment catalog: %w", err)
	}
	if len(criteria.RequiredEquipment) > 0 && len(equipment) == 0 {
		return nil, ErrNoFeasibleResources
	}

	roomType := RequiredRoomType(criteria, equipment)
	rooms, err := m.Repo.ListRooms(ctx, roomType)
	if err != nil {
		return nil, fmt.Errorf("loading room catalog: %w", err)
	}
	if len(rooms) == 0 {
		return nil, ErrNoFeasibleResources
	}

	held, err := m.Repo.ListBookingsOverlapping(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading resource bookings: %w", err)
	}

	room := m.firstFreeRoom(rooms, held, start, end)
	if room == nil {
		return nil, ErrNoFeasibleResources
	}

	freeEquipment, missing := m.freeEquipmentSet(criteria.RequiredEquipment, equipment, held, start, end)
	if missing {
		return nil, ErrNoFeasibleResources
	}

	alloc := &models.ResourceAllocation{
		RoomID:          room.ID,
		EquipmentIDs:    freeEquipment,
		BufferBefore:    room.CleaningBufferMin,
		BufferAfter:     room.CleaningBufferMin,
		AllocationScore: allocationScore(rooms, held, start, end),
		EfficiencyScore: efficiencyScore(start, end, room.CleaningBufferMin),
	}
	return alloc, nil
}

// ResourcesAvailable answers the delegated availability check.
func (m *DefaultResourceManager) ResourcesAvailable(ctx context.Context, criteria models.SchedulingCriteria, start, end time.Time) (bool, error) {
	_, err := m.Allocate(ctx, criteria, start, end)
	if err == ErrNoFeasibleResources {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ConfirmAllocation persists the allocation as a booking record.
func (m *DefaultResourceManager) ConfirmAllocation(ctx context.Context, appointmentID string, alloc models.ResourceAllocation, start, end time.Time) (*models.ResourceBooking, error) {
	booking := &models.ResourceBooking{
		ID:            uuid.New().String(),
		AppointmentID: appointmentID,
		RoomID:        alloc.RoomID,
		EquipmentIDs:  alloc.EquipmentIDs,
		Start:         start,
		End:           end,
		BufferBefore:  alloc.BufferBefore,
		BufferAfter:   alloc.BufferAfter,
		Status:        models.ResourceReserved,
		CreatedAt:     time.Now(),
	}
	if err := m.Repo.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("persisting resource booking: %w", err)
	}
	return booking, nil
}

// Release frees the resources tied to an appointment.
func (m *DefaultResourceManager) Release(ctx context.Context, appointmentID string) error {
	if err := m.Repo.ReleaseByAppointment(ctx, appointmentID); err != nil {
		return fmt.Errorf("releasing resources: %w", err)
	}
	utils.GetLogger().Debug("resources released", zap.String("appointmentId", appointmentID))
	return nil
}

// Utilization reports per-room booking counts over a window.
func (m *DefaultResourceManager) Utilization(ctx context.Context, start, end time.Time) (map[string]int, error) {
	return m.Repo.CountBookingsInRange(ctx, start, end)
}

// firstFreeRoom returns the first room whose buffered window is clear of
// held bookings and maintenance.
func (m *DefaultResourceManager) firstFreeRoom(rooms []models.Room, held []models.ResourceBooking, start, end time.Time) *models.Room {
	for i := range rooms {
		room := &rooms[i]
		if roomFree(*room, held, start, end) {
			return room
		}
	}
	return nil
}

// roomFree applies the buffered half-open overlap test for one room.
func roomFree(room models.Room, held []models.ResourceBooking, start, end time.Time) bool {
	buffer := time.Duration(room.CleaningBufferMin) * time.Minute
	windowStart := start.Add(-buffer)
	windowEnd := end.Add(buffer)

	for _, mw := range room.MaintenanceWindows {
		if windowStart.Before(mw.End) && windowEnd.After(mw.Start) {
			return false
		}
	}
	for _, b := range held {
		if b.RoomID != room.ID {
			continue
		}
		occStart, occEnd := b.OccupiedWindow()
		if windowStart.Before(occEnd) && windowEnd.After(occStart) {
			return false
		}
	}
	return true
}

// freeEquipmentSet selects one free unit per required kind. The second
// return value is true when some kind could not be satisfied.
func (m *DefaultResourceManager) freeEquipmentSet(requiredKinds []string, catalog []models.Equipment, held []models.ResourceBooking, start, end time.Time) ([]string, bool) {
	if len(requiredKinds) == 0 {
		return nil, false
	}

	var selected []string
	for _, kind := range requiredKinds {
		found := false
		for _, eq := range catalog {
			if eq.Kind != kind {
				continue
			}
			if equipmentFree(eq, held, start, end) {
				selected = append(selected, eq.ID)
				found = true
				break
			}
		}
		if !found {
			return nil, true
		}
	}
	return selected, false
}

// equipmentFree applies the buffered overlap test for one device.
func equipmentFree(eq models.Equipment, held []models.ResourceBooking, start, end time.Time) bool {
	buffer := time.Duration(eq.CleaningBufferMin) * time.Minute
	windowStart := start.Add(-buffer)
	windowEnd := end.Add(buffer)

	for _, mw := range eq.MaintenanceWindows {
		if windowStart.Before(mw.End) && windowEnd.After(mw.Start) {
			return false
		}
	}
	for _, b := range held {
		occStart, occEnd := b.OccupiedWindow()
		if !(windowStart.Before(occEnd) && windowEnd.After(occStart)) {
			continue
		}
		for _, id := range b.EquipmentIDs {
			if id == eq.ID {
				return false
			}
		}
	}
	return true
}

// allocationScore rewards windows where capacity is plentiful: the share of
// candidate rooms still free.
func allocationScore(rooms []models.Room, held []models.ResourceBooking, start, end time.Time) float64 {
	if len(rooms) == 0 {
		return 0
	}
	free := 0
	for _, room := range rooms {
		if roomFree(room, held, start, end) {
			free++
		}
	}
	return float64(free) / float64(len(rooms))
}

// efficiencyScore estimates turnover efficiency: the useful fraction of the
// occupied window once cleaning buffers are accounted for.
func efficiencyScore(start, end time.Time, bufferMin int) float64 {
	useful := end.Sub(start).Minutes()
	total := useful + 2*float64(bufferMin)
	if total <= 0 {
		return 0
	}
	return useful / total
}
