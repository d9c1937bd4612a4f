package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"curriculum-push/internal/models"
	"curriculum-push/internal/repository"
)

type state struct {
	entries map[int]models.CurriculumEntry
	nextID  int
}

func (s state) clone() state {
	entries := make(map[int]models.CurriculumEntry, len(s.entries))
	for id, e := range s.entries {
		entries[id] = e
	}
	return state{entries: entries, nextID: s.nextID}
}

// Store - хранилище очереди в памяти. Транзакция работает с копией
// состояния и подменяет его только при успешном завершении.
type Store struct {
	mu    sync.RWMutex
	state state
	nowFn func() time.Time
}

func NewStore() *Store {
	return &Store{
		state: state{entries: make(map[int]models.CurriculumEntry), nextID: 1},
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) RunInTransaction(ctx context.Context, fn func(repo repository.CurriculumRepository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &view{state: s.state.clone(), nowFn: s.nowFn}
	if err := fn(tx); err != nil {
		return err
	}

	s.state = tx.state
	return nil
}

func (s *Store) read() *view {
	return &view{state: s.state, nowFn: s.nowFn}
}

func (s *Store) GetAll(ctx context.Context) ([]models.CurriculumEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetAll(ctx)
}

func (s *Store) GetByID(ctx context.Context, id int) (*models.CurriculumEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetByID(ctx, id)
}

func (s *Store) GetByTimeKey(ctx context.Context, key models.TimeKey) (*models.CurriculumEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetByTimeKey(ctx, key)
}

func (s *Store) GetUpcoming(ctx context.Context, period, week int) ([]models.CurriculumEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetUpcoming(ctx, period, week)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().Count(ctx)
}

func (s *Store) GetPage(ctx context.Context, offset, limit int) ([]models.CurriculumEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetPage(ctx, offset, limit)
}

// Одиночные изменения тоже идут через транзакцию, чтобы nextID
// и карта записей менялись атомарно.

func (s *Store) Insert(ctx context.Context, entry *models.CurriculumEntry) error {
	return s.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
		return repo.Insert(ctx, entry)
	})
}

func (s *Store) Update(ctx context.Context, entry models.CurriculumEntry) error {
	return s.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
		return repo.Update(ctx, entry)
	})
}

func (s *Store) DeleteByID(ctx context.Context, id int) error {
	return s.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
		return repo.DeleteByID(ctx, id)
	})
}

func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	var removed int
	err := s.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
		var err error
		removed, err = repo.DeleteAll(ctx)
		return err
	})
	return removed, err
}

// view выполняет операции над конкретным снимком состояния.
// Блокировку держит вызывающий.
type view struct {
	state state
	nowFn func() time.Time
}

func (v *view) RunInTransaction(_ context.Context, fn func(repo repository.CurriculumRepository) error) error {
	return fn(v)
}

func (v *view) sorted() []models.CurriculumEntry {
	entries := make([]models.CurriculumEntry, 0, len(v.state.entries))
	for _, e := range v.state.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		if a.Week != b.Week {
			return a.Week < b.Week
		}
		return a.Section < b.Section
	})
	return entries
}

func (v *view) GetAll(_ context.Context) ([]models.CurriculumEntry, error) {
	entries := make([]models.CurriculumEntry, 0, len(v.state.entries))
	for _, e := range v.state.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (v *view) GetByID(_ context.Context, id int) (*models.CurriculumEntry, error) {
	e, ok := v.state.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (v *view) GetByTimeKey(_ context.Context, key models.TimeKey) (*models.CurriculumEntry, error) {
	for _, e := range v.state.entries {
		if e.TimeKey() == key {
			return &e, nil
		}
	}
	return nil, nil
}

func (v *view) GetUpcoming(_ context.Context, period, week int) ([]models.CurriculumEntry, error) {
	from := models.Position{Period: period, Week: week}

	entries := []models.CurriculumEntry{}
	for _, e := range v.sorted() {
		if !(models.Position{Period: e.Period, Week: e.Week}).Before(from) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (v *view) Insert(_ context.Context, entry *models.CurriculumEntry) error {
	key := entry.TimeKey()
	for _, e := range v.state.entries {
		if e.TimeKey() == key {
			return fmt.Errorf("insert curriculum at %s: %w", key, repository.ErrDuplicateTimeKey)
		}
	}

	now := v.nowFn()
	entry.ID = v.state.nextID
	entry.CreatedAt = now
	entry.UpdatedAt = now

	v.state.entries[entry.ID] = *entry
	v.state.nextID++
	return nil
}

func (v *view) Update(_ context.Context, entry models.CurriculumEntry) error {
	current, ok := v.state.entries[entry.ID]
	if !ok {
		return fmt.Errorf("curriculum %d: %w", entry.ID, repository.ErrNotFound)
	}

	key := entry.TimeKey()
	for id, e := range v.state.entries {
		if id != entry.ID && e.TimeKey() == key {
			return fmt.Errorf("update curriculum %d to %s: %w", entry.ID, key, repository.ErrDuplicateTimeKey)
		}
	}

	entry.CreatedAt = current.CreatedAt
	entry.UpdatedAt = v.nowFn()
	v.state.entries[entry.ID] = entry
	return nil
}

func (v *view) DeleteByID(_ context.Context, id int) error {
	if _, ok := v.state.entries[id]; !ok {
		return fmt.Errorf("curriculum %d: %w", id, repository.ErrNotFound)
	}
	delete(v.state.entries, id)
	return nil
}

func (v *view) Count(_ context.Context) (int, error) {
	return len(v.state.entries), nil
}

func (v *view) GetPage(_ context.Context, offset, limit int) ([]models.CurriculumEntry, error) {
	entries := v.sorted()
	if offset >= len(entries) {
		return []models.CurriculumEntry{}, nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], nil
}

func (v *view) DeleteAll(_ context.Context) (int, error) {
	removed := len(v.state.entries)
	v.state.entries = make(map[int]models.CurriculumEntry)
	return removed, nil
}
