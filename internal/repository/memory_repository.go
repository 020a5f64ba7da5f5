package repository

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-ledger/internal/domain"
)

// MemoryStore is an in-process stand-in for the Postgres repositories,
// used when no DSN is configured. Not-found lookups return pgx.ErrNoRows
// like the Postgres implementations.
type MemoryStore struct {
	mu            sync.RWMutex
	logs          map[string][]domain.ChangeSet
	changeSetIDs  map[string]struct{}
	users         map[string]domain.User
	organizations map[string]domain.Organization
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs:          make(map[string][]domain.ChangeSet),
		changeSetIDs:  make(map[string]struct{}),
		users:         make(map[string]domain.User),
		organizations: make(map[string]domain.Organization),
	}
}

// ChangeSets returns the log store view.
func (m *MemoryStore) ChangeSets() ChangeSetRepository { return memoryChangeSets{m} }

// Users returns the user directory view.
func (m *MemoryStore) Users() UserRepository { return memoryUsers{m} }

// Organizations returns the organization directory view.
func (m *MemoryStore) Organizations() OrganizationRepository { return memoryOrganizations{m} }

type memoryChangeSets struct{ *MemoryStore }

// Append stores changeSets under a private copy of ticketID; callers may
// pass strings backed by reused request buffers.
func (m memoryChangeSets) Append(_ context.Context, ticketID string, changeSets ...domain.ChangeSet) error {
	if len(changeSets) == 0 {
		return nil
	}
	ticketID = strings.Clone(ticketID)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cs := range changeSets {
		if _, dup := m.changeSetIDs[cs.ID()]; dup {
			return ErrDuplicateChangeSet
		}
	}
	log := m.logs[ticketID]
	for _, cs := range changeSets {
		m.changeSetIDs[strings.Clone(cs.ID())] = struct{}{}
		log = append(log, cs)
	}
	m.logs[ticketID] = log
	return nil
}

func (m memoryChangeSets) ListByTicket(_ context.Context, ticketID string) ([]domain.ChangeSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.logs[ticketID]), nil
}

// ListTicketIDs returns tickets ordered by their oldest change-set
// timestamp, newest first, ties by id. This matches the Postgres query.
func (m memoryChangeSets) ListTicketIDs(_ context.Context, limit, offset int) ([]string, error) {
	m.mu.RLock()
	type created struct {
		id string
		at time.Time
	}
	tickets := make([]created, 0, len(m.logs))
	for id, log := range m.logs {
		oldest := log[0].Timestamp()
		for _, cs := range log[1:] {
			if cs.Timestamp().Before(oldest) {
				oldest = cs.Timestamp()
			}
		}
		tickets = append(tickets, created{id: id, at: oldest})
	}
	m.mu.RUnlock()

	slices.SortFunc(tickets, func(a, b created) int {
		if c := b.at.Compare(a.at); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	ids := make([]string, len(tickets))
	for i, t := range tickets {
		ids[i] = t.id
	}
	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids, nil
}

type memoryUsers struct{ *MemoryStore }

func (m memoryUsers) Upsert(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

func (m memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memoryOrganizations struct{ *MemoryStore }

func (m memoryOrganizations) Upsert(_ context.Context, org *domain.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.organizations[org.ID] = *org
	return nil
}

func (m memoryOrganizations) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	org, ok := m.organizations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &org, nil
}
