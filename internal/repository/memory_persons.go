package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"familytree/internal/domain"
)

// MemoryPersonsRepository keeps the service runnable when no database is
// configured (dev fallback) and backs handler/service tests.
type MemoryPersonsRepository struct {
	mu      sync.RWMutex
	persons map[int64]domain.Person
	nextID  int64
}

func NewMemoryPersonsRepository() *MemoryPersonsRepository {
	return &MemoryPersonsRepository{
		persons: map[int64]domain.Person{},
		nextID:  1,
	}
}

var _ PersonsRepository = (*MemoryPersonsRepository)(nil)

func (r *MemoryPersonsRepository) ListAll(_ context.Context) ([]domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.persons))
	for id := range r.persons {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]domain.Person, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.resolveLocked(r.persons[id]))
	}
	return out, nil
}

func (r *MemoryPersonsRepository) GetByID(_ context.Context, id int64) (*domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.persons[id]
	if !ok {
		return nil, ErrNotFound
	}
	resolved := r.resolveLocked(p)
	return &resolved, nil
}

func (r *MemoryPersonsRepository) FindChildren(_ context.Context, id int64) ([]domain.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.persons))
	for cid, p := range r.persons {
		if (p.FatherID != nil && *p.FatherID == id) || (p.MotherID != nil && *p.MotherID == id) {
			ids = append(ids, cid)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	children := make([]domain.Person, 0, len(ids))
	for _, cid := range ids {
		children = append(children, r.persons[cid])
	}
	return children, nil
}

func (r *MemoryPersonsRepository) Insert(_ context.Context, p *domain.Person) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkParentsLocked(p); err != nil {
		return 0, err
	}
	stored := *p
	stored.ID = r.nextID
	stored.RowVersion = 1
	stored.Father, stored.Mother = nil, nil
	r.persons[stored.ID] = stored
	r.nextID++
	return stored.ID, nil
}

func (r *MemoryPersonsRepository) Update(_ context.Context, p *domain.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.persons[p.ID]
	if !ok || existing.RowVersion != p.RowVersion {
		return ErrConflict
	}
	if err := r.checkParentsLocked(p); err != nil {
		return err
	}
	stored := *p
	stored.RowVersion = existing.RowVersion + 1
	stored.Father, stored.Mother = nil, nil
	r.persons[p.ID] = stored
	return nil
}

func (r *MemoryPersonsRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.persons[id]; !ok {
		return ErrNotFound
	}
	delete(r.persons, id)
	return nil
}

func (r *MemoryPersonsRepository) Exists(_ context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.persons[id]
	return ok, nil
}

func (r *MemoryPersonsRepository) resolveLocked(p domain.Person) domain.Person {
	if p.FatherID != nil {
		if f, ok := r.persons[*p.FatherID]; ok {
			f.Father, f.Mother = nil, nil
			p.Father = &f
		}
	}
	if p.MotherID != nil {
		if m, ok := r.persons[*p.MotherID]; ok {
			m.Father, m.Mother = nil, nil
			p.Mother = &m
		}
	}
	return p
}

// checkParentsLocked mirrors the foreign key constraints of the SQL backends.
func (r *MemoryPersonsRepository) checkParentsLocked(p *domain.Person) error {
	if p.FatherID != nil {
		if _, ok := r.persons[*p.FatherID]; !ok {
			return fmt.Errorf("father %d does not exist", *p.FatherID)
		}
	}
	if p.MotherID != nil {
		if _, ok := r.persons[*p.MotherID]; !ok {
			return fmt.Errorf("mother %d does not exist", *p.MotherID)
		}
	}
	return nil
}
