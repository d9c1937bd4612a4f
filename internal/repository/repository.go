package repository

import (
	"context"
	"errors"

	"curriculum-push/internal/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrDuplicateTimeKey = errors.New("time key already taken")
)

// CurriculumRepository - примитивы хранилища очереди.
// GetByID и GetByTimeKey возвращают (nil, nil), если записи нет.
type CurriculumRepository interface {
	GetAll(ctx context.Context) ([]models.CurriculumEntry, error)
	GetByID(ctx context.Context, id int) (*models.CurriculumEntry, error)
	GetByTimeKey(ctx context.Context, key models.TimeKey) (*models.CurriculumEntry, error)
	// GetUpcoming - записи с (period, week) >= заданной позиции, секция не учитывается
	GetUpcoming(ctx context.Context, period, week int) ([]models.CurriculumEntry, error)
	Insert(ctx context.Context, entry *models.CurriculumEntry) error
	Update(ctx context.Context, entry models.CurriculumEntry) error
	DeleteByID(ctx context.Context, id int) error

	Count(ctx context.Context) (int, error)
	GetPage(ctx context.Context, offset, limit int) ([]models.CurriculumEntry, error)
	DeleteAll(ctx context.Context) (int, error)
}

// Transactor открывает транзакционную границу. Любая ошибка fn
// откатывает все изменения, сделанные через переданный репозиторий.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(repo CurriculumRepository) error) error
}

type CurriculumStore interface {
	CurriculumRepository
	Transactor
}
