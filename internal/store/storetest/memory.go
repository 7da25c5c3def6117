// Package storetest provides an in-memory store for tests.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/inkpad/inkpad/internal/store"
)

// Memory implements the store's methods over maps. It is safe for
// concurrent use.
type Memory struct {
	mu        sync.Mutex
	users     map[string]store.User
	drawings  map[string]store.Drawing
	members   map[string]map[string]string // drawing -> user -> role
	snapshots map[string][]store.Snapshot
	now       time.Time

	// SaveErr, when set, is returned by SaveSnapshot.
	SaveErr error
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[string]store.User),
		drawings:  make(map[string]store.Drawing),
		members:   make(map[string]map[string]string),
		snapshots: make(map[string][]store.Snapshot),
		now:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so ordering is stable.
func (m *Memory) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *Memory) CreateUser(_ context.Context, u store.User) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, fmt.Errorf("create user: %w", store.ErrDuplicate)
		}
	}
	u.CreatedAt = m.tick()
	m.users[u.ID] = u
	return &u, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", store.ErrNotFound)
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("get user: %w", store.ErrNotFound)
	}
	return &u, nil
}

func (m *Memory) CreateDrawing(_ context.Context, d store.Drawing) (*store.Drawing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drawings[d.ID]; ok {
		return nil, fmt.Errorf("create drawing: %w", store.ErrDuplicate)
	}
	d.CreatedAt = m.tick()
	d.UpdatedAt = d.CreatedAt
	m.drawings[d.ID] = d
	m.members[d.ID] = map[string]string{d.OwnerID: store.RoleOwner}
	return &d, nil
}

func (m *Memory) GetDrawing(_ context.Context, id string) (*store.Drawing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drawings[id]
	if !ok {
		return nil, fmt.Errorf("get drawing: %w", store.ErrNotFound)
	}
	return &d, nil
}

func (m *Memory) ListDrawings(_ context.Context, userID string) ([]store.Drawing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Drawing
	for id, ms := range m.members {
		if _, ok := ms[userID]; ok {
			out = append(out, m.drawings[id])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *Memory) RenameDrawing(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drawings[id]
	if !ok {
		return fmt.Errorf("rename drawing: %w", store.ErrNotFound)
	}
	d.Name = name
	d.UpdatedAt = m.tick()
	m.drawings[id] = d
	return nil
}

func (m *Memory) DeleteDrawing(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drawings[id]; !ok {
		return fmt.Errorf("delete drawing: %w", store.ErrNotFound)
	}
	delete(m.drawings, id)
	delete(m.members, id)
	delete(m.snapshots, id)
	return nil
}

func (m *Memory) AddMember(_ context.Context, drawingID, userID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.members[drawingID]
	if !ok {
		return fmt.Errorf("add member: drawing %s missing", drawingID)
	}
	if _, ok := ms[userID]; ok {
		return fmt.Errorf("add member: %w", store.ErrDuplicate)
	}
	ms[userID] = role
	return nil
}

func (m *Memory) GetMember(_ context.Context, drawingID, userID string) (*store.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.members[drawingID][userID]
	if !ok {
		return nil, fmt.Errorf("get member: %w", store.ErrNotFound)
	}
	mem := m.member(drawingID, userID, role)
	return &mem, nil
}

func (m *Memory) ListMembers(_ context.Context, drawingID string) ([]store.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Member
	for userID, role := range m.members[drawingID] {
		out = append(out, m.member(drawingID, userID, role))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (m *Memory) member(drawingID, userID, role string) store.Member {
	u := m.users[userID]
	return store.Member{DrawingID: drawingID, UserID: userID, Role: role, DisplayName: u.DisplayName, Email: u.Email}
}

func (m *Memory) RemoveMember(_ context.Context, drawingID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[drawingID][userID]; !ok {
		return fmt.Errorf("remove member: %w", store.ErrNotFound)
	}
	delete(m.members[drawingID], userID)
	return nil
}

func (m *Memory) SaveSnapshot(_ context.Context, id, drawingID string, doc []byte) (*store.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	d, ok := m.drawings[drawingID]
	if !ok {
		return nil, fmt.Errorf("save snapshot: drawing %s missing", drawingID)
	}
	snaps := m.snapshots[drawingID]
	version := int64(1)
	if n := len(snaps); n > 0 {
		version = snaps[n-1].Version + 1
	}
	snap := store.Snapshot{
		ID:        id,
		DrawingID: drawingID,
		Version:   version,
		Document:  append([]byte(nil), doc...),
		CreatedAt: m.tick(),
	}
	m.snapshots[drawingID] = append(snaps, snap)
	d.UpdatedAt = snap.CreatedAt
	m.drawings[drawingID] = d
	return &snap, nil
}

func (m *Memory) LatestSnapshot(_ context.Context, drawingID string) (*store.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := m.snapshots[drawingID]
	if len(snaps) == 0 {
		return nil, fmt.Errorf("latest snapshot: %w", store.ErrNotFound)
	}
	snap := snaps[len(snaps)-1]
	return &snap, nil
}

func (m *Memory) PruneSnapshots(_ context.Context, drawingID string, keep int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := m.snapshots[drawingID]
	over := len(snaps) - max(keep, 0)
	if over <= 0 {
		return 0, nil
	}
	m.snapshots[drawingID] = append([]store.Snapshot(nil), snaps[over:]...)
	return int64(over), nil
}

// Snapshots returns how many snapshots a drawing has.
func (m *Memory) Snapshots(drawingID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots[drawingID])
}
