package portfolio

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/models"
)

// memStore mirrors GormStore: version compare-and-swap on Update and a
// unique owner on Create. It hands out clones so callers never share memory.
type memStore struct {
	mu    sync.Mutex
	docs  map[uuid.UUID]*models.PortfolioSubmission
	users map[uuid.UUID]models.User

	usersErr error
	updates  int
}

func newMemStore() *memStore {
	return &memStore{
		docs:  map[uuid.UUID]*models.PortfolioSubmission{},
		users: map[uuid.UUID]models.User{},
	}
}

func (m *memStore) FindByID(_ context.Context, id uuid.UUID) (*models.PortfolioSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *memStore) FindByOwner(_ context.Context, ownerID uuid.UUID) (*models.PortfolioSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.docs {
		if p.IsOwnedBy(ownerID) {
			return p.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) List(_ context.Context, f ListFilter) ([]models.PortfolioSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PortfolioSubmission{}
	for _, p := range m.docs {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, *p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedDate.After(out[j].SubmittedDate) })
	return out, nil
}

func (m *memStore) ListWithLegacyHeadline(_ context.Context) ([]models.PortfolioSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PortfolioSubmission
	for _, p := range m.docs {
		if p.LegacyHeadline != "" {
			out = append(out, *p.Clone())
		}
	}
	return out, nil
}

func (m *memStore) Create(_ context.Context, p *models.PortfolioSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.UserID != nil {
		for _, d := range m.docs {
			if d.IsOwnedBy(*p.UserID) {
				return ErrVersionConflict
			}
		}
	}
	if p.Version == 0 {
		p.Version = 1
	}
	m.docs[p.ID] = p.Clone()
	return nil
}

func (m *memStore) Update(_ context.Context, p *models.PortfolioSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[p.ID]
	if !ok || cur.Version != p.Version {
		return ErrVersionConflict
	}
	p.Version++
	m.docs[p.ID] = p.Clone()
	m.updates++
	return nil
}

func (m *memStore) UsersByID(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.usersErr != nil {
		return nil, m.usersErr
	}
	out := map[uuid.UUID]models.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *memStore) get(id uuid.UUID) *models.PortfolioSubmission {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.docs[id]; ok {
		return p.Clone()
	}
	return nil
}

// conflictStore fails the first n updates as if another writer got there first.
type conflictStore struct {
	*memStore
	n int
}

func (c *conflictStore) Update(ctx context.Context, p *models.PortfolioSubmission) error {
	if c.n > 0 {
		c.n--
		return ErrVersionConflict
	}
	return c.memStore.Update(ctx, p)
}

type fakeFiles struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeFiles) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return f.err
}

type fakeNotifier struct {
	calls []models.PortfolioStatus
}

func (n *fakeNotifier) PortfolioStatusChanged(_ context.Context, _ uuid.UUID, p *models.PortfolioSubmission) {
	n.calls = append(n.calls, p.Status)
}

var errBoom = errors.New("boom")
