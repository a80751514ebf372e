package rules

import (
	"context"
	"fmt"
	"time"

	"clinicore/models"
)

// Fee tiers as a step function of hours of notice. Outside the refund
// window the charged share of the appointment fee only grows as notice
// shrinks.
const (
	freeCancellationHours = 24.0
	lateTierHours         = 12.0
	veryLateTierHours     = 2.0

	lateTierPercent     = 0.25
	veryLateTierPercent = 0.50
	lastMinutePercent   = 1.00
)

// CancellationFeePercent returns the charged share of the appointment fee
// for the given hours of notice.
func CancellationFeePercent(hoursBefore float64) float64 {
	switch {
	case hoursBefore >= freeCancellationHours:
		return 0
	case hoursBefore >= lateTierHours:
		return lateTierPercent
	case hoursBefore >= veryLateTierHours:
		return veryLateTierPercent
	default:
		return lastMinutePercent
	}
}

// ValidateCancellation rejects cancellation of past or completed
// appointments and quotes the fee owed for valid ones. The quote is a pure
// function of the appointment and the cancellation instant, so recomputing
// from the same inputs always yields the same fee.
func (e *DefaultRulesEngine) ValidateCancellation(_ context.Context, appt *models.Appointment, at time.Time) (models.CancellationQuote, error) {
	if appt == nil {
		return models.CancellationQuote{}, fmt.Errorf("appointment is required")
	}

	quote := models.CancellationQuote{
		HoursBefore: appt.ScheduledAt.Sub(at).Hours(),
	}

	if appt.Status == models.StatusCompleted {
		quote.Reason = "appointment already completed"
		return quote, nil
	}
	if appt.IsTerminal() {
		quote.Reason = fmt.Sprintf("appointment is already %s", appt.Status)
		return quote, nil
	}
	if !at.Before(appt.ScheduledAt) {
		quote.Reason = "appointment time has already passed"
		return quote, nil
	}

	quote.Allowed = true
	quote.FeePercent = CancellationFeePercent(quote.HoursBefore)
	quote.Fee = appt.Fee * quote.FeePercent
	quote.RefundWindow = quote.FeePercent == 0
	return quote, nil
}
