package service

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
)

// CapacityAccountant keeps the event counters in line with the
// registrations that reference the event.
type CapacityAccountant struct {
	events        EventStore
	registrations RegistrationStore
}

func NewCapacityAccountant(events EventStore, registrations RegistrationStore) *CapacityAccountant {
	return &CapacityAccountant{
		events:        events,
		registrations: registrations,
	}
}

// Claim reserves one seat if the event is below capacity. The reservation
// is a single conditional update, so concurrent claims cannot overbook.
func (c *CapacityAccountant) Claim(ctx context.Context, eventID string) (bool, error) {
	return c.events.ClaimSlot(ctx, eventID)
}

// CanApprove reports whether a pending registration may be confirmed. A
// pending registration already holds its place in registration_count, so
// the check counts confirmed and attended seats instead of claiming one.
func (c *CapacityAccountant) CanApprove(ctx context.Context, eventID string) (bool, error) {
	return c.events.HasApprovalSeat(ctx, eventID)
}

// Recompute re-aggregates the counters from the registration statuses and
// writes all three back in one update.
func (c *CapacityAccountant) Recompute(ctx context.Context, eventID string) (model.EventCounters, error) {
	counts, err := c.registrations.CountByStatus(ctx, eventID)
	if err != nil {
		return model.EventCounters{}, err
	}

	counters := model.CountersFromStatuses(counts)
	if err := c.events.UpdateCounters(ctx, eventID, counters); err != nil {
		return model.EventCounters{}, err
	}

	return counters, nil
}
