package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-ledger/internal/cache"
	"github.com/spec-kit/ticket-ledger/internal/domain"
	"github.com/spec-kit/ticket-ledger/internal/events"
	"github.com/spec-kit/ticket-ledger/internal/lock"
	"github.com/spec-kit/ticket-ledger/internal/observability"
	"github.com/spec-kit/ticket-ledger/internal/report"
	"github.com/spec-kit/ticket-ledger/internal/repository"
	apperrors "github.com/spec-kit/ticket-ledger/pkg/util/errorutil"
)

// TicketService coordinates change-set logs and their projections.
type TicketService struct {
	changeSets    repository.ChangeSetRepository
	users         repository.UserRepository
	organizations repository.OrganizationRepository
	cache         cache.LogCache
	locker        lock.Locker
	dispatcher    events.Dispatcher
	hash          domain.HashFunc
	report        *report.Writer
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service. Cache,
// Dispatcher and Metrics are optional.
type TicketDependencies struct {
	ChangeSetRepo    repository.ChangeSetRepository
	UserRepo         repository.UserRepository
	OrganizationRepo repository.OrganizationRepository
	Cache            cache.LogCache
	Locker           lock.Locker
	Dispatcher       events.Dispatcher
	Hash             domain.HashFunc
	Report           *report.Writer
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	Now              func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		changeSets:    deps.ChangeSetRepo,
		users:         deps.UserRepo,
		organizations: deps.OrganizationRepo,
		cache:         deps.Cache,
		locker:        deps.Locker,
		dispatcher:    deps.Dispatcher,
		hash:          deps.Hash,
		report:        deps.Report,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		now:           deps.Now,
	}
	if s.locker == nil {
		s.locker = lock.NewMemoryLocker()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.report == nil {
		s.report = report.NewWriter(report.DefaultConfig(), s.now)
	}
	return s
}

// CreateTicket records p as the first change-set of a new ticket authored
// by authorID.
func (s *TicketService) CreateTicket(ctx context.Context, authorID string, p domain.ChangeSetParams) (*domain.Ticket, error) {
	p.Author = domain.Ref[domain.User](strings.TrimSpace(authorID))
	if p.Timestamp.IsZero() {
		p.Timestamp = s.now()
	}
	if err := s.checkReferences(ctx, p.Affected); err != nil {
		return nil, err
	}
	ticket, err := domain.NewTicketFromFields("", p)
	if err != nil {
		s.recordProjection(err)
		return nil, err
	}
	origin := ticket.ChangeSets()[0]
	if err := s.changeSets.Append(ctx, ticket.ID(), origin); err != nil {
		return nil, fmt.Errorf("store ticket %s: %w", ticket.ID(), err)
	}
	s.recordProjection(nil)
	s.logger.Info("ticket created", zap.String("ticket_id", ticket.ID()), zap.String("author_id", authorID))

	s.publishEvent(ctx, ticket, origin, events.EventTicketCreated, events.TicketCreatedPayload{
		Title:    ticket.Title().Best(),
		Priority: string(ticket.Priority()),
		Status:   ticket.Status().Status.String(),
	})
	s.publishAppendEvents(ctx, nil, ticket, origin)
	return ticket, nil
}

// GetTicket projects the current log of ticketID.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	log, err := s.loadLog(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket, err := domain.NewTicket(ticketID, log)
	s.recordProjection(err)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListTickets projects a page of tickets, newest first.
func (s *TicketService) ListTickets(ctx context.Context, limit, offset int) ([]*domain.Ticket, error) {
	ids, err := s.changeSets.ListTicketIDs(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	tickets := make([]*domain.Ticket, 0, len(ids))
	for _, id := range ids {
		ticket, err := s.GetTicket(ctx, id)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// ListChangeSets returns the log of ticketID newest-first.
func (s *TicketService) ListChangeSets(ctx context.Context, ticketID string) ([]domain.ChangeSet, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return ticket.ChangeSets(), nil
}

// StatusHistory returns the status timeline, oldest first.
func (s *TicketService) StatusHistory(ctx context.Context, ticketID string) ([]domain.StatusEntry, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return ticket.StatusHistory(), nil
}

// IntegrityHash digests the current projection of ticketID.
func (s *TicketService) IntegrityHash(ctx context.Context, ticketID string) (string, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return "", err
	}
	return ticket.IntegrityHash(s.hash)
}

// AppendChangeSet records p on ticketID as authorID. Writers to one ticket
// are serialized; the change-set is stored only if the resulting log still
// projects.
func (s *TicketService) AppendChangeSet(ctx context.Context, ticketID, authorID string, p domain.ChangeSetParams) (*domain.Ticket, error) {
	ticket, _, err := s.appendLocked(ctx, ticketID, func(*domain.Ticket) (domain.ChangeSetParams, error) {
		if err := s.checkReferences(ctx, p.Affected); err != nil {
			return domain.ChangeSetParams{}, err
		}
		p.Author = domain.Ref[domain.User](strings.TrimSpace(authorID))
		return p, nil
	})
	return ticket, err
}

// ResolveAffected expands the affected entries of ticketID through the
// directories. Ids that stayed unresolved are reported, not dropped.
func (s *TicketService) ResolveAffected(ctx context.Context, ticketID string) (domain.AffectedSet, domain.Unresolved, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return domain.AffectedSet{}, domain.Unresolved{}, err
	}
	return ticket.Affected().Expand(ctx, s.resolvers())
}

// LinkAffected appends a change-set whose affected entries are the current
// ones merged with additions, so earlier links survive newest-wins.
func (s *TicketService) LinkAffected(ctx context.Context, ticketID, authorID string, additions domain.AffectedSet) (*domain.Ticket, error) {
	if additions.IsEmpty() {
		return nil, apperrors.NewValidationError("nothing to link", nil)
	}
	if err := s.checkReferences(ctx, additions); err != nil {
		return nil, err
	}
	ticket, cs, err := s.appendLocked(ctx, ticketID, func(current *domain.Ticket) (domain.ChangeSetParams, error) {
		return domain.ChangeSetParams{
			Author:   domain.Ref[domain.User](strings.TrimSpace(authorID)),
			Affected: domain.MergeAffected(current.Affected(), additions),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, ticket, cs, events.EventAffectedEntitiesLinked, events.AffectedEntitiesLinkedPayload{
		Tickets:       additions.Tickets().IDs(),
		Users:         additions.Users().IDs(),
		Organizations: additions.Organizations().IDs(),
	})
	return ticket, nil
}

// ExportCSV writes a report row for every ticket in the page.
func (s *TicketService) ExportCSV(ctx context.Context, w io.Writer, limit, offset int) error {
	tickets, err := s.ListTickets(ctx, limit, offset)
	if err != nil {
		return err
	}
	views := make([]domain.Projection, len(tickets))
	for i, t := range tickets {
		views[i] = t.Projection()
	}
	return s.report.Write(w, views)
}

// appendLocked loads the log under the ticket's write lock, builds a
// change-set from the current state and stores it if the extended log
// projects.
func (s *TicketService) appendLocked(ctx context.Context, ticketID string, next func(*domain.Ticket) (domain.ChangeSetParams, error)) (*domain.Ticket, domain.ChangeSet, error) {
	var none domain.ChangeSet
	// ticketID outlives the request in events and the warm-up queue.
	ticketID = strings.Clone(ticketID)
	release, err := s.locker.Acquire(ctx, ticketID)
	if err != nil {
		return nil, none, fmt.Errorf("lock ticket %s: %w", ticketID, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release ticket lock failed", zap.String("ticket_id", ticketID), zap.Error(err))
		}
	}()

	log, err := s.changeSets.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, none, err
	}
	if len(log) == 0 {
		return nil, none, ticketNotFound(ticketID)
	}
	builder := domain.NewTicketBuilder(ticketID, log...)
	current, err := builder.ToImmutable()
	if err != nil {
		return nil, none, err
	}

	p, err := next(current)
	if err != nil {
		return nil, none, err
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = s.now()
	}
	cs, err := domain.NewChangeSet(p)
	if err != nil {
		return nil, none, err
	}
	updated, err := builder.Append(cs).ToImmutable()
	s.recordProjection(err)
	if err != nil {
		return nil, none, err
	}

	if err := s.changeSets.Append(ctx, ticketID, cs); err != nil {
		if errors.Is(err, repository.ErrDuplicateChangeSet) {
			return nil, none, apperrors.NewConflict("change-set already recorded", map[string]any{"change_set_id": cs.ID()})
		}
		return nil, none, fmt.Errorf("store change-set %s: %w", cs.ID(), err)
	}
	s.invalidate(ctx, ticketID)
	s.logger.Info("change-set appended",
		zap.String("ticket_id", ticketID),
		zap.String("change_set_id", cs.ID()),
		zap.Int("change_set_count", builder.Len()))

	s.publishAppendEvents(ctx, current, updated, cs)
	return updated, cs, nil
}

func (s *TicketService) loadLog(ctx context.Context, ticketID string) ([]domain.ChangeSet, error) {
	var generation int64
	cacheable := false
	if s.cache != nil {
		log, ok, err := s.cache.Get(ctx, ticketID)
		if err != nil {
			s.logger.Warn("change-set cache read failed", zap.String("ticket_id", ticketID), zap.Error(err))
		} else if ok {
			return log, nil
		}
		if generation, err = s.cache.Generation(ctx, ticketID); err != nil {
			s.logger.Warn("change-set cache generation read failed", zap.String("ticket_id", ticketID), zap.Error(err))
		} else {
			cacheable = true
		}
	}
	log, err := s.changeSets.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if len(log) == 0 {
		return nil, ticketNotFound(ticketID)
	}
	if cacheable {
		if err := s.cache.Set(ctx, ticketID, log, generation); err != nil {
			s.logger.Warn("change-set cache write failed", zap.String("ticket_id", ticketID), zap.Error(err))
		}
	}
	return log, nil
}

// WarmCache reloads the stored log of ticketID into the cache. The write is
// skipped when an append lands while the log is being read.
func (s *TicketService) WarmCache(ctx context.Context, ticketID string) error {
	if s.cache == nil {
		return nil
	}
	generation, err := s.cache.Generation(ctx, ticketID)
	if err != nil {
		return err
	}
	log, err := s.changeSets.ListByTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if len(log) == 0 {
		return nil
	}
	return s.cache.Set(ctx, ticketID, log, generation)
}

func (s *TicketService) invalidate(ctx context.Context, ticketID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ticketID); err != nil {
		s.logger.Warn("change-set cache invalidation failed", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

// checkReferences fails with a *domain.ReferenceError when an affected id
// is unknown to the directories.
func (s *TicketService) checkReferences(ctx context.Context, affected domain.AffectedSet) error {
	if affected.IsEmpty() {
		return nil
	}
	_, unresolved, err := affected.Expand(ctx, s.resolvers())
	if err != nil {
		return err
	}
	return unresolved.Err()
}

func (s *TicketService) resolvers() domain.Resolvers {
	r := domain.Resolvers{
		Ticket: func(ctx context.Context, id string) (*domain.Ticket, error) {
			ticket, err := s.GetTicket(ctx, id)
			if isNotFound(err) {
				return nil, nil
			}
			return ticket, err
		},
	}
	if s.users != nil {
		r.User = lookup(s.users.GetByID)
	}
	if s.organizations != nil {
		r.Organization = lookup(s.organizations.GetByID)
	}
	return r
}

// lookup adapts a directory getter to the resolver contract, where a
// missing row is (nil, nil).
func lookup[T any](get func(context.Context, string) (*T, error)) func(context.Context, string) (*T, error) {
	return func(ctx context.Context, id string) (*T, error) {
		v, err := get(ctx, id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return v, err
	}
}

func (s *TicketService) publishAppendEvents(ctx context.Context, before, after *domain.Ticket, cs domain.ChangeSet) {
	s.publishEvent(ctx, after, cs, events.EventChangeSetAppended, events.ChangeSetAppendedPayload{
		ChangeSetCount: len(after.ChangeSets()),
	})

	oldStatus := domain.StatusNew
	if before != nil {
		oldStatus = before.Status().Status
	}
	if _, set := cs.Status().Get(); set && after.Status().Status != oldStatus {
		s.publishEvent(ctx, after, cs, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
			OldStatus: oldStatus.String(),
			NewStatus: after.Status().Status.String(),
		})
	}

	mark, ok := after.FirstResponse().Get()
	if !ok {
		return
	}
	if before != nil {
		if prev, had := before.FirstResponse().Get(); had && prev.Equal(mark) {
			return
		}
	}
	s.publishEvent(ctx, after, cs, events.EventFirstResponseRecorded, events.FirstResponseRecordedPayload{
		ElapsedSeconds: mark.ElapsedSeconds(),
		ChangeSetID:    mark.ChangeSetID(),
	})
}

func (s *TicketService) publishEvent(ctx context.Context, ticket *domain.Ticket, cs domain.ChangeSet, eventType events.EventType, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:          uuid.NewString(),
		Type:        eventType,
		TicketID:    ticket.ID(),
		ChangeSetID: cs.ID(),
		Actor:       events.Actor{UserID: cs.Author().ID()},
		Timestamp:   s.now(),
		Payload:     payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func (s *TicketService) recordProjection(err error) {
	if err == nil {
		s.metrics.RecordProjection("ok")
		return
	}
	s.metrics.RecordProjection(apperrors.ToDomainError(err).Code)
}

func ticketNotFound(ticketID string) error {
	return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
}

func isNotFound(err error) bool {
	var de *apperrors.DomainError
	return errors.As(err, &de) && de.Code == "NOT_FOUND"
}
