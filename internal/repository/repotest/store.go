// Package repotest provides an in-memory repository.Store for tests.
//
// Transactions are serialized and every write made inside WithinTx is
// discarded when the callback returns an error, matching the all-or-nothing
// behaviour of the Postgres store.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-service/internal/domain"
	"github.com/spec-kit/repair-service/internal/repository"
)

// Store is an in-memory repository.Store.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data state

	failures map[string]error
	repos    repository.Repositories
}

type state struct {
	equipment  map[string]domain.Equipment
	breakdowns map[string]domain.Breakdown
	accounts   map[string]domain.Account
	reports    map[domain.FaultReportKey]domain.FaultReport
	tickets    map[string]domain.Ticket
	history    []domain.TicketHistory
}

// New returns an empty store.
func New() *Store {
	s := &Store{
		data: state{
			equipment:  map[string]domain.Equipment{},
			breakdowns: map[string]domain.Breakdown{},
			accounts:   map[string]domain.Account{},
			reports:    map[domain.FaultReportKey]domain.FaultReport{},
			tickets:    map[string]domain.Ticket{},
		},
		failures: map[string]error{},
	}
	s.repos = repository.Repositories{
		Equipment:    equipmentRepo{s},
		Breakdowns:   breakdownRepo{s},
		Accounts:     accountRepo{s},
		FaultReports: faultReportRepo{s},
		Tickets:      ticketRepo{s},
		Technicians:  technicianRepo{s},
		History:      historyRepo{s},
	}
	return s
}

var _ repository.Store = (*Store)(nil)

// Repos implements repository.Store.
func (s *Store) Repos() repository.Repositories {
	return s.repos
}

// WithinTx implements repository.Store.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()
	return fn(ctx, s.repos)
}

// FailOn makes the next call of op return err. Ops are named
// "<repo>.<method>", e.g. "tickets.update" or "history.create".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

func (s *Store) restore(snapshot state) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = snapshot
}

// lock acquires the data mutex unless a failure was injected for op, in
// which case the mutex is left unlocked and the failure returned.
func (s *Store) lock(op string) error {
	s.mu.Lock()
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (st state) clone() state {
	out := state{
		equipment:  make(map[string]domain.Equipment, len(st.equipment)),
		breakdowns: make(map[string]domain.Breakdown, len(st.breakdowns)),
		accounts:   make(map[string]domain.Account, len(st.accounts)),
		reports:    make(map[domain.FaultReportKey]domain.FaultReport, len(st.reports)),
		tickets:    make(map[string]domain.Ticket, len(st.tickets)),
		history:    append([]domain.TicketHistory(nil), st.history...),
	}
	for k, v := range st.equipment {
		out.equipment[k] = cloneEquipment(v)
	}
	for k, v := range st.breakdowns {
		out.breakdowns[k] = v
	}
	for k, v := range st.accounts {
		out.accounts[k] = cloneAccount(v)
	}
	for k, v := range st.reports {
		out.reports[k] = v
	}
	for k, v := range st.tickets {
		out.tickets[k] = cloneTicket(v)
	}
	return out
}

func cloneEquipment(e domain.Equipment) domain.Equipment {
	e.ClientID = cloneString(e.ClientID)
	return e
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.TechnicianID = cloneString(t.TechnicianID)
	if t.ResolvedAt != nil {
		at := *t.ResolvedAt
		t.ResolvedAt = &at
	}
	return t
}

func cloneAccount(a domain.Account) domain.Account {
	switch acc := a.(type) {
	case *domain.Admin:
		c := *acc
		return &c
	case *domain.Client:
		c := *acc
		return &c
	case *domain.Technician:
		c := *acc
		c.CurrentTicketID = cloneString(acc.CurrentTicketID)
		return &c
	}
	return a
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func page[T any](items []T, limit, offset, defaultLimit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type equipmentRepo struct{ s *Store }

func (r equipmentRepo) Create(_ context.Context, e *domain.Equipment) error {
	if err := r.s.lock("equipment.create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.CreatedAt, e.UpdatedAt = now, now
	r.s.data.equipment[e.ID] = cloneEquipment(*e)
	return nil
}

func (r equipmentRepo) Update(_ context.Context, e *domain.Equipment) error {
	if err := r.s.lock("equipment.update"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.equipment[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	e.UpdatedAt = time.Now().UTC()
	r.s.data.equipment[e.ID] = cloneEquipment(*e)
	return nil
}

func (r equipmentRepo) GetByID(_ context.Context, id string) (*domain.Equipment, error) {
	if err := r.s.lock("equipment.get"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	e, ok := r.s.data.equipment[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneEquipment(e)
	return &out, nil
}

func (r equipmentRepo) GetForUpdate(ctx context.Context, id string) (*domain.Equipment, error) {
	return r.GetByID(ctx, id)
}

func (r equipmentRepo) List(_ context.Context, filter repository.EquipmentFilter) ([]domain.Equipment, error) {
	if err := r.s.lock("equipment.list"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []domain.Equipment
	for _, e := range r.s.data.equipment {
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, e.Status) {
			continue
		}
		if filter.ClientID != nil && (e.ClientID == nil || *e.ClientID != *filter.ClientID) {
			continue
		}
		out = append(out, cloneEquipment(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, filter.Limit, filter.Offset, 50), nil
}

type breakdownRepo struct{ s *Store }

func (r breakdownRepo) Create(_ context.Context, b *domain.Breakdown) error {
	if err := r.s.lock("breakdowns.create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now().UTC()
	r.s.data.breakdowns[b.ID] = *b
	return nil
}

func (r breakdownRepo) GetByID(_ context.Context, id string) (*domain.Breakdown, error) {
	if err := r.s.lock("breakdowns.get"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	b, ok := r.s.data.breakdowns[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &b, nil
}

func (r breakdownRepo) List(_ context.Context, filter repository.BreakdownFilter) ([]domain.Breakdown, error) {
	if err := r.s.lock("breakdowns.list"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []domain.Breakdown
	for _, b := range r.s.data.breakdowns {
		if len(filter.Priorities) > 0 && !contains(filter.Priorities, b.Priority) {
			continue
		}
		if len(filter.Categories) > 0 && !contains(filter.Categories, b.Category) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, filter.Limit, filter.Offset, 100), nil
}

type accountRepo struct{ s *Store }

func (r accountRepo) Create(_ context.Context, account domain.Account) error {
	if err := r.s.lock("accounts.create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	user := account.Base()
	switch acc := account.(type) {
	case *domain.Admin:
		user.Role = domain.RoleAdmin
	case *domain.Client:
		user.Role = domain.RoleClient
	case *domain.Technician:
		user.Role = domain.RoleTechnician
		acc.UpdatedAt = time.Now().UTC()
	default:
		return fmt.Errorf("unsupported account type %T", account)
	}
	user.ID = uuid.NewString()
	user.JoinedAt = time.Now().UTC()
	r.s.data.accounts[user.ID] = cloneAccount(account)
	return nil
}

func (r accountRepo) GetByID(_ context.Context, id string) (domain.Account, error) {
	if err := r.s.lock("accounts.get"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	acc, ok := r.s.data.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneAccount(acc), nil
}

type technicianRepo struct{ s *Store }

func (r technicianRepo) get(id string) (*domain.Technician, bool) {
	tech, ok := r.s.data.accounts[id].(*domain.Technician)
	return tech, ok
}

func (r technicianRepo) GetByID(_ context.Context, id string) (*domain.Technician, error) {
	if err := r.s.lock("technicians.get"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	tech, ok := r.get(id)
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneAccount(tech).(*domain.Technician), nil
}

func (r technicianRepo) GetForUpdate(ctx context.Context, id string) (*domain.Technician, error) {
	return r.GetByID(ctx, id)
}

func (r technicianRepo) Reserve(_ context.Context, technicianID, ticketID string) error {
	if err := r.s.lock("technicians.reserve"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	tech, ok := r.get(technicianID)
	if !ok || !tech.Available {
		return repository.ErrTechnicianBusy
	}
	tech.Available = false
	tech.CurrentTicketID = &ticketID
	tech.UpdatedAt = time.Now().UTC()
	return nil
}

func (r technicianRepo) Release(_ context.Context, technicianID string) error {
	if err := r.s.lock("technicians.release"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	tech, ok := r.get(technicianID)
	if !ok {
		return pgx.ErrNoRows
	}
	tech.Available = true
	tech.CurrentTicketID = nil
	tech.UpdatedAt = time.Now().UTC()
	return nil
}

func (r technicianRepo) List(_ context.Context, filter repository.TechnicianFilter) ([]domain.Technician, error) {
	if err := r.s.lock("technicians.list"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []domain.Technician
	for _, acc := range r.s.data.accounts {
		tech, ok := acc.(*domain.Technician)
		if !ok {
			continue
		}
		if filter.Available != nil && tech.Available != *filter.Available {
			continue
		}
		out = append(out, *cloneAccount(tech).(*domain.Technician))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID < out[j].ID
	})
	return page(out, filter.Limit, filter.Offset, 50), nil
}

type faultReportRepo struct{ s *Store }

func (r faultReportRepo) Upsert(_ context.Context, report *domain.FaultReport) error {
	if err := r.s.lock("fault_reports.upsert"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	key := report.Key()
	stored, ok := r.s.data.reports[key]
	if !ok {
		stored = domain.FaultReport{
			EquipmentID:     key.EquipmentID,
			BreakdownID:     key.BreakdownID,
			FirstReportedAt: report.LastReportedAt,
		}
	}
	stored.ReportCount++
	stored.LastReportedAt = report.LastReportedAt
	r.s.data.reports[key] = stored

	report.ReportCount = stored.ReportCount
	report.FirstReportedAt = stored.FirstReportedAt
	report.LastReportedAt = stored.LastReportedAt
	return nil
}

func (r faultReportRepo) Get(_ context.Context, key domain.FaultReportKey) (*domain.FaultReport, error) {
	if err := r.s.lock("fault_reports.get"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	report, ok := r.s.data.reports[key]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &report, nil
}

func (r faultReportRepo) ListByEquipment(_ context.Context, equipmentID string) ([]domain.FaultReport, error) {
	if err := r.s.lock("fault_reports.list"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []domain.FaultReport
	for key, report := range r.s.data.reports {
		if key.EquipmentID == equipmentID {
			out = append(out, report)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastReportedAt.Equal(out[j].LastReportedAt) {
			return out[i].LastReportedAt.After(out[j].LastReportedAt)
		}
		return out[i].BreakdownID < out[j].BreakdownID
	})
	return out, nil
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, t *domain.Ticket) error {
	if err := r.s.lock("tickets.create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	t.ID = uuid.NewString()
	r.s.data.tickets[t.ID] = cloneTicket(*t)
	return nil
}

func (r ticketRepo) Update(_ context.Context, t *domain.Ticket) error {
	if err := r.s.lock("tickets.update"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	stored, ok := r.s.data.tickets[t.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = t.Status
	stored.TechnicianID = cloneString(t.TechnicianID)
	stored.UpdatedAt = t.UpdatedAt
	stored.ResolvedAt = cloneTicket(*t).ResolvedAt
	r.s.data.tickets[t.ID] = stored
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	if err := r.s.lock("tickets.get"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	t, ok := r.s.data.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneTicket(t)
	return &out, nil
}

func (r ticketRepo) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r ticketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if err := r.s.lock("tickets.list"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.s.data.tickets {
		if len(filter.Statuses) > 0 && !contains(filter.Statuses, t.Status) {
			continue
		}
		if filter.ClientID != nil && t.ClientID != *filter.ClientID {
			continue
		}
		if filter.TechnicianID != nil && (t.TechnicianID == nil || *t.TechnicianID != *filter.TechnicianID) {
			continue
		}
		if filter.EquipmentID != nil && t.EquipmentID != *filter.EquipmentID {
			continue
		}
		out = append(out, cloneTicket(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, filter.Limit, filter.Offset, 20), nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(_ context.Context, h *domain.TicketHistory) error {
	if err := r.s.lock("history.create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	h.ID = uuid.NewString()
	r.s.data.history = append(r.s.data.history, *h)
	return nil
}

func (r historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if err := r.s.lock("history.list"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range r.s.data.history {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
