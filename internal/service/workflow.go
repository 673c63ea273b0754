package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/events"
	"github.com/spec-kit/repair-service/internal/observability"
	"github.com/spec-kit/repair-service/internal/repository"
	apperrors "github.com/spec-kit/repair-service/pkg/util/errorutil"
)

// Dependencies bundles what the workflow services share.
type Dependencies struct {
	Store      repository.Store
	Catalog    *BreakdownCatalog
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

// workflow carries the plumbing common to every service: the store,
// post-commit event publication, logging and transition metrics.
type workflow struct {
	store      repository.Store
	catalog    *BreakdownCatalog
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

func newWorkflow(deps Dependencies) workflow {
	w := workflow{
		store:      deps.Store,
		catalog:    deps.Catalog,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        deps.Now,
	}
	if w.catalog == nil {
		w.catalog = NewBreakdownCatalog(0)
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

func (w workflow) timestamp() time.Time {
	return w.now().UTC()
}

// publish sends events in order. It must only be called after the
// transaction that produced them committed.
func (w workflow) publish(ctx context.Context, evts ...events.Event) {
	if w.dispatcher == nil {
		return
	}
	actor := events.ActorFromContext(ctx)
	for _, event := range evts {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.Timestamp.IsZero() {
			event.Timestamp = w.timestamp()
		}
		if event.Actor.Role == "" {
			event.Actor = actor
		}
		if err := w.dispatcher.Publish(ctx, event); err != nil {
			w.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
		}
	}
}

func (w workflow) transitioned(ticketID string, from, to domain.TicketStatus) {
	w.metrics.RecordTransition(string(from), string(to))
	w.logger.Info("ticket transitioned",
		zap.String("ticket_id", ticketID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
}

func statusChangedEvent(ticket *domain.Ticket, from domain.TicketStatus, equipment domain.EquipmentStatus) events.Event {
	return events.Event{
		Type:        events.EventTicketStatusChanged,
		TicketID:    ticket.ID,
		EquipmentID: ticket.EquipmentID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:       from,
			NewStatus:       ticket.Status,
			EquipmentStatus: equipment,
		},
	}
}

// lookupError turns a repository read failure into NOT_FOUND for resource
// or a wrapped infrastructure error.
func lookupError(err error, resource, idKey, id string) error {
	if apperrors.IsMissingRow(err) {
		return apperrors.NewNotFound(resource, map[string]any{idKey: id})
	}
	return fmt.Errorf("load %s %s: %w", resource, id, err)
}

func transitionError(ticket *domain.Ticket, event domain.TicketEvent, err error) error {
	return apperrors.NewInvalidTransition(string(ticket.Status), string(event), err)
}

func recordStatusChange(ctx context.Context, repos repository.Repositories, ticketID string, oldStatus, newStatus domain.TicketStatus, at time.Time) error {
	oldValue := map[string]any{}
	if oldStatus != "" {
		oldValue["status"] = string(oldStatus)
	}
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangeType: domain.ChangeTypeStatus,
		OldValue:   oldValue,
		NewValue: map[string]any{
			"status": string(newStatus),
		},
		CreatedAt: at,
	}
	stampAuthor(ctx, entry)
	if err := repos.History.Create(ctx, entry); err != nil {
		return fmt.Errorf("record status change: %w", err)
	}
	return nil
}

func recordTechnicianChange(ctx context.Context, repos repository.Repositories, ticketID string, oldTech, newTech *string, at time.Time) error {
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangeType: domain.ChangeTypeTechnician,
		OldValue: map[string]any{
			"technician_id": derefOrNil(oldTech),
		},
		NewValue: map[string]any{
			"technician_id": derefOrNil(newTech),
		},
		CreatedAt: at,
	}
	stampAuthor(ctx, entry)
	if err := repos.History.Create(ctx, entry); err != nil {
		return fmt.Errorf("record technician change: %w", err)
	}
	return nil
}

// stampAuthor copies the acting principal from ctx onto entry.
func stampAuthor(ctx context.Context, entry *domain.TicketHistory) {
	actor := events.ActorFromContext(ctx)
	if actor.Role == "" {
		entry.ChangedByType = domain.RoleSystem
		return
	}
	entry.ChangedByType = actor.Role
	if actor.ID != nil {
		entry.ChangedByID = ptr(*actor.ID)
	}
}

func derefOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func ptr[T any](v T) *T {
	return &v
}
