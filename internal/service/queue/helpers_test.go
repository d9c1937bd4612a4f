package queue_service

import (
	"context"
	"errors"
	"sync"
	"time"

	"curriculum-push/internal/lock"
	"curriculum-push/internal/metrics"
	"curriculum-push/internal/models"
	"curriculum-push/internal/repository"
	"curriculum-push/internal/repository/memory"
	"curriculum-push/internal/service"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type fixedResolver struct {
	pos models.Position
	err error
}

func (r fixedResolver) Current(context.Context) (models.Position, error) {
	return r.pos, r.err
}

type observation struct {
	operation string
	outcome   string
}

type recordingMetrics struct {
	mu   sync.Mutex
	seen []observation
}

func (m *recordingMetrics) Observe(operation, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, observation{operation: operation, outcome: outcome})
}

func newService(store repository.CurriculumStore) service.CurriculumQueueService {
	return NewQueueService(store, fixedResolver{pos: models.Position{Period: 5, Week: 3}},
		lock.NewMemoryLocker(), metrics.Nop{}, zap.NewNop())
}

func course(name string, period, week, section int) models.CurriculumEntry {
	return models.CurriculumEntry{CourseName: name, Period: period, Week: week, Section: section}
}

// failingDeleteStore ломает удаление одного ID внутри транзакции.
type failingDeleteStore struct {
	*memory.Store
	failID   int
	attempts []int
}

func (s *failingDeleteStore) RunInTransaction(ctx context.Context, fn func(repo repository.CurriculumRepository) error) error {
	return s.Store.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
		return fn(&failingDeleteRepo{CurriculumRepository: repo, store: s})
	})
}

type failingDeleteRepo struct {
	repository.CurriculumRepository
	store *failingDeleteStore
}

func (r *failingDeleteRepo) DeleteByID(ctx context.Context, id int) error {
	r.store.attempts = append(r.store.attempts, id)
	if id == r.store.failID {
		return errors.New("disk full")
	}
	return r.CurriculumRepository.DeleteByID(ctx, id)
}

// blindStore не видит занятые слоты, конфликт находит только Insert.
type blindStore struct {
	*memory.Store
}

func (s *blindStore) RunInTransaction(ctx context.Context, fn func(repo repository.CurriculumRepository) error) error {
	return s.Store.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
		return fn(&blindRepo{CurriculumRepository: repo})
	})
}

type blindRepo struct {
	repository.CurriculumRepository
}

func (r *blindRepo) GetByTimeKey(context.Context, models.TimeKey) (*models.CurriculumEntry, error) {
	return nil, nil
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) RunInTransaction(ctx context.Context, fn func(repo repository.CurriculumRepository) error) error {
	m.Called(ctx)
	return fn(m)
}

func (m *mockStore) GetAll(ctx context.Context) ([]models.CurriculumEntry, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]models.CurriculumEntry)
	return entries, args.Error(1)
}

func (m *mockStore) GetByID(ctx context.Context, id int) (*models.CurriculumEntry, error) {
	args := m.Called(ctx, id)
	entry, _ := args.Get(0).(*models.CurriculumEntry)
	return entry, args.Error(1)
}

func (m *mockStore) GetByTimeKey(ctx context.Context, key models.TimeKey) (*models.CurriculumEntry, error) {
	args := m.Called(ctx, key)
	entry, _ := args.Get(0).(*models.CurriculumEntry)
	return entry, args.Error(1)
}

func (m *mockStore) GetUpcoming(ctx context.Context, period, week int) ([]models.CurriculumEntry, error) {
	args := m.Called(ctx, period, week)
	entries, _ := args.Get(0).([]models.CurriculumEntry)
	return entries, args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, entry *models.CurriculumEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockStore) Update(ctx context.Context, entry models.CurriculumEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockStore) DeleteByID(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) GetPage(ctx context.Context, offset, limit int) ([]models.CurriculumEntry, error) {
	args := m.Called(ctx, offset, limit)
	entries, _ := args.Get(0).([]models.CurriculumEntry)
	return entries, args.Error(1)
}

func (m *mockStore) DeleteAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
