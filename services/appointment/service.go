package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appointmentRepo "clinicore/database/repository/appointment"
	doctorRepo "clinicore/database/repository/doctor"
	patientRepo "clinicore/database/repository/patient"
	"clinicore/models"
	"clinicore/services/availability"
	"clinicore/services/notification"
	"clinicore/services/queue"
	"clinicore/services/resource"
	"clinicore/services/rules"
	"clinicore/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultAppointmentService implements AppointmentService.
type DefaultAppointmentService struct {
	ApptRepo        appointmentRepo.AppointmentRepository
	PatientRepo     patientRepo.PatientRepository
	DoctorRepo      doctorRepo.DoctorRepository
	Rules           rules.RulesEngine
	Availability    availability.AvailabilityService
	Resources       resource.ResourceManager
	QueueSvc        queue.QueueService
	NotificationSvc notification.NotificationService

	ReservationTTL time.Duration
	StrikeLimit    int
}

// BookAppointment executes the booking pipeline as a unit. The soft
// reservation serializes concurrent flows on the slot; any downstream
// failure rolls the reservation and allocation back before returning.
func (s *DefaultAppointmentService) BookAppointment(ctx context.Context, criteria models.SchedulingCriteria, slot models.AvailableSlot) (*models.Appointment, error) {
	result, err := s.Rules.ValidateBooking(ctx, criteria, slot)
	if err != nil {
		return nil, fmt.Errorf("validating booking: %w", err)
	}
	if !result.IsValid {
		return nil, &ValidationError{Result: result}
	}

	return s.executeBooking(ctx, criteria, slot, models.StatusScheduled, "")
}

// BookEmergencySlot books under emergency rules: the appointment is
// auto-confirmed and the triage assessment is attached to its notes for
// audit. Overflow slots deliberately bypass the storage overlap guard.
func (s *DefaultAppointmentService) BookEmergencySlot(ctx context.Context, criteria models.SchedulingCriteria, slot models.AvailableSlot, assessment models.EmergencyAssessment) (*models.Appointment, error) {
	notes := ""
	if payload, err := json.Marshal(assessment); err == nil {
		notes = fmt.Sprintf("triage: %s", payload)
	}
	return s.executeBooking(ctx, criteria, slot, models.StatusConfirmed, notes)
}

// BookFromQueue books a freed slot for a waitlisted patient through the
// normal validated pipeline.
func (s *DefaultAppointmentService) BookFromQueue(ctx context.Context, entry models.QueueEntry, slot models.AvailableSlot) (*models.Appointment, error) {
	criteria := models.SchedulingCriteria{
		SpecialtyID:     entry.SpecialtyID,
		DoctorID:        slot.DoctorID,
		AppointmentType: entry.AppointmentType,
		StartDate:       slot.Start,
		EndDate:         slot.End,
		PatientID:       entry.PatientID,
		UrgencyLevel:    entry.UrgencyLevel,
	}
	return s.BookAppointment(ctx, criteria, slot)
}

// executeBooking runs reserve → allocate → persist → release as a unit.
func (s *DefaultAppointmentService) executeBooking(ctx context.Context, criteria models.SchedulingCriteria, slot models.AvailableSlot, initialStatus models.AppointmentStatus, notes string) (*models.Appointment, error) {
	logger := utils.GetLogger()

	if err := s.Availability.ReserveSlotTemporarily(ctx, slot.ID, criteria.PatientID, s.ReservationTTL); err != nil {
		return nil, err
	}
	// The reservation is released on every path below; expiry covers a
	// crashed flow.
	releaseReservation := func() {
		if err := s.Availability.ReleaseTemporaryReservation(ctx, slot.ID, criteria.PatientID); err != nil {
			logger.Warn("failed to release slot reservation", zap.String("slotId", slot.ID), zap.Error(err))
		}
	}

	alloc, err := s.Resources.Allocate(ctx, criteria, slot.Start, slot.End)
	if err != nil && err != resource.ErrNoFeasibleResources {
		releaseReservation()
		return nil, fmt.Errorf("allocating resources: %w", err)
	}
	if err == resource.ErrNoFeasibleResources && slot.SlotType != models.SlotOverflow {
		releaseReservation()
		return nil, err
	}

	appt := s.buildAppointment(ctx, criteria, slot, initialStatus, notes, alloc)

	if slot.SlotType == models.SlotOverflow {
		err = s.ApptRepo.CreateOverbooked(ctx, appt)
	} else {
		err = s.ApptRepo.Create(ctx, appt)
	}
	if err != nil {
		releaseReservation()
		return nil, fmt.Errorf("persisting appointment: %w", err)
	}

	if alloc != nil {
		if _, err := s.Resources.ConfirmAllocation(ctx, appt.ID, *alloc, slot.Start, slot.End); err != nil {
			// Roll the whole unit back; no silent partial writes.
			if stErr := s.ApptRepo.UpdateStatus(ctx, appt.ID, models.StatusCancelled); stErr != nil {
				logger.Error("rollback failed after allocation error",
					zap.String("appointmentId", appt.ID), zap.Error(stErr))
			}
			releaseReservation()
			return nil, fmt.Errorf("confirming resource allocation: %w", err)
		}
		appt.RoomID = alloc.RoomID
		appt.EquipmentIDs = alloc.EquipmentIDs
	}

	releaseReservation()
	s.Availability.InvalidateDoctorDay(ctx, appt.DoctorID, appt.ScheduledAt.Format("2006-01-02"))
	s.NotificationSvc.NotifyAppointmentEvent(ctx, "booked", appt)

	logger.Info("appointment booked",
		zap.String("appointmentId", appt.ID),
		zap.String("doctorId", appt.DoctorID),
		zap.Time("scheduledAt", appt.ScheduledAt),
		zap.String("status", string(appt.Status)),
	)
	return appt, nil
}

// buildAppointment assembles the durable record for a slot.
func (s *DefaultAppointmentService) buildAppointment(ctx context.Context, criteria models.SchedulingCriteria, slot models.AvailableSlot, status models.AppointmentStatus, notes string, alloc *models.ResourceAllocation) *models.Appointment {
	now := time.Now()
	appt := &models.Appointment{
		ID:              uuid.New().String(),
		PatientID:       criteria.PatientID,
		DoctorID:        slot.DoctorID,
		SpecialtyID:     criteria.SpecialtyID,
		ScheduledAt:     slot.Start,
		EndTime:         slot.End,
		DurationMinutes: int(slot.End.Sub(slot.Start).Minutes()),
		Status:          status,
		Type:            criteria.AppointmentType,
		Reason:          criteria.Reason,
		Notes:           notes,
		Fee:             s.appointmentFee(ctx, criteria, slot),
		PaymentStatus:   models.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if alloc != nil {
		appt.RoomID = alloc.RoomID
		appt.EquipmentIDs = alloc.EquipmentIDs
	}
	return appt
}

// appointmentFee prefers the doctor's consultation fee, falling back to the
// specialty base fee.
func (s *DefaultAppointmentService) appointmentFee(ctx context.Context, criteria models.SchedulingCriteria, slot models.AvailableSlot) float64 {
	if doctor, err := s.DoctorRepo.GetByID(ctx, slot.DoctorID); err == nil && doctor.ConsultationFee > 0 {
		return doctor.ConsultationFee
	}
	if spec, err := s.DoctorRepo.GetSpecialty(ctx, criteria.SpecialtyID); err == nil {
		return spec.BaseFee
	}
	return 0
}

// GetAppointment fetches one appointment.
func (s *DefaultAppointmentService) GetAppointment(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	return s.ApptRepo.GetByID(ctx, appointmentID)
}
