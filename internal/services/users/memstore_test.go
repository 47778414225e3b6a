package users

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/models"
)

var errBoom = errors.New("boom")

// memStore keeps users and the points ledger in memory and counts writes
// per user.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	entries  []models.PointsTransaction
	inUse    map[string]bool
	inUseErr error
	writes   map[uuid.UUID]int
	// takenHandles makes AssignHandle fail with ErrDuplicate this many times
	takenHandles int
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[uuid.UUID]models.User{},
		inUse:  map[string]bool{},
		writes: map[uuid.UUID]int{},
	}
}

func (m *memStore) seed(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.ID] = u
	return u
}

func (m *memStore) get(id uuid.UUID) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.users {
		if o.Email == u.Email || (u.Handle != nil && o.Handle != nil && *o.Handle == *u.Handle) {
			return ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	m.users[u.ID] = *u
	m.writes[u.ID]++
	return nil
}

func (m *memStore) Update(_ context.Context, id uuid.UUID, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	apply(&u, fields)
	m.users[id] = u
	m.writes[id]++
	return nil
}

func (m *memStore) AssignHandle(_ context.Context, id uuid.UUID, handle string, fields map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takenHandles > 0 {
		m.takenHandles--
		return false, ErrDuplicate
	}
	u, ok := m.users[id]
	if !ok || u.Handle != nil {
		return false, nil
	}
	apply(&u, fields)
	u.Handle = &handle
	m.users[id] = u
	m.writes[id]++
	return true, nil
}

func (m *memStore) ImageInUse(_ context.Context, ref string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inUseErr != nil {
		return false, m.inUseErr
	}
	return m.inUse[ref], nil
}

func (m *memStore) EachUser(_ context.Context, fn func(u *models.User)) error {
	m.mu.Lock()
	all := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, u)
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	for i := range all {
		fn(&all[i])
	}
	return nil
}

func (m *memStore) AddPoints(_ context.Context, userID uuid.UUID, amount int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	u.Points += amount
	m.users[userID] = u
	return &u, nil
}

func (m *memStore) AddEntry(_ context.Context, e *models.PointsTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.CreatedAt = time.Now()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memStore) History(_ context.Context, userID uuid.UUID, limit int) ([]models.PointsTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PointsTransaction
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func apply(u *models.User, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "profession":
			u.Profession = v.(string)
		case "profile_image":
			u.ProfileImage = v.(string)
		case "tier":
			u.Tier = v.(models.Tier)
		}
	}
}

type fakeFiles struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeFiles) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}
