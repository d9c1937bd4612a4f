package memory

import (
	"context"
	"errors"
	"testing"

	"curriculum-push/internal/models"
	"curriculum-push/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, keys ...models.TimeKey) {
	t.Helper()
	for _, k := range keys {
		e := &models.CurriculumEntry{CourseName: "Курс", Period: k.Period, Week: k.Week, Section: k.Section}
		require.NoError(t, s.Insert(context.Background(), e))
	}
}

func TestStoreInsertAssignsIDs(t *testing.T) {
	s := NewStore()
	seed(t, s, models.TimeKey{Period: 1, Week: 1, Section: 1}, models.TimeKey{Period: 1, Week: 1, Section: 2})

	all, err := s.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, 2, all[1].ID)
}

func TestStoreRejectsDuplicateTimeKey(t *testing.T) {
	s := NewStore()
	seed(t, s, models.TimeKey{Period: 2, Week: 3, Section: 4})

	err := s.Insert(context.Background(), &models.CurriculumEntry{CourseName: "Дубль", Period: 2, Week: 3, Section: 4})
	assert.ErrorIs(t, err, repository.ErrDuplicateTimeKey)

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStoreTransactionRollback(t *testing.T) {
	s := NewStore()
	seed(t, s,
		models.TimeKey{Period: 1, Week: 1, Section: 1},
		models.TimeKey{Period: 1, Week: 1, Section: 2},
		models.TimeKey{Period: 1, Week: 1, Section: 3},
	)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx repository.CurriculumRepository) error {
		require.NoError(t, tx.DeleteByID(ctx, 1))
		require.NoError(t, tx.DeleteByID(ctx, 2))

		e, err := tx.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, e)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	for id := 1; id <= 3; id++ {
		e, err := s.GetByID(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, e, "id %d", id)
	}
}

func TestStoreNestedTransactionJoinsOuter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(tx repository.CurriculumRepository) error {
		inner, ok := tx.(repository.Transactor)
		require.True(t, ok)
		return inner.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
			return repo.Insert(ctx, &models.CurriculumEntry{CourseName: "Курс", Period: 1, Week: 1, Section: 1})
		})
	})
	require.NoError(t, err)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStoreUpdateAndDelete(t *testing.T) {
	s := NewStore()
	seed(t, s, models.TimeKey{Period: 1, Week: 1, Section: 1}, models.TimeKey{Period: 1, Week: 1, Section: 2})
	ctx := context.Background()

	err := s.Update(ctx, models.CurriculumEntry{ID: 1, CourseName: "Новое", Period: 3, Week: 3, Section: 3})
	require.NoError(t, err)

	e, err := s.GetByTimeKey(ctx, models.TimeKey{Period: 3, Week: 3, Section: 3})
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Новое", e.CourseName)

	err = s.Update(ctx, models.CurriculumEntry{ID: 1, CourseName: "Конфликт", Period: 1, Week: 1, Section: 2})
	assert.ErrorIs(t, err, repository.ErrDuplicateTimeKey)

	assert.ErrorIs(t, s.Update(ctx, models.CurriculumEntry{ID: 404}), repository.ErrNotFound)
	assert.ErrorIs(t, s.DeleteByID(ctx, 404), repository.ErrNotFound)

	removed, err := s.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}

func TestStoreUpcomingAndPage(t *testing.T) {
	s := NewStore()
	seed(t, s,
		models.TimeKey{Period: 6, Week: 1, Section: 1},
		models.TimeKey{Period: 5, Week: 3, Section: 2},
		models.TimeKey{Period: 5, Week: 2, Section: 1},
		models.TimeKey{Period: 5, Week: 3, Section: 1},
	)
	ctx := context.Background()

	upcoming, err := s.GetUpcoming(ctx, 5, 3)
	require.NoError(t, err)
	require.Len(t, upcoming, 3)
	assert.Equal(t, models.TimeKey{Period: 5, Week: 3, Section: 1}, upcoming[0].TimeKey())
	assert.Equal(t, models.TimeKey{Period: 6, Week: 1, Section: 1}, upcoming[2].TimeKey())

	page, err := s.GetPage(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, models.TimeKey{Period: 5, Week: 3, Section: 1}, page[0].TimeKey())

	empty, err := s.GetPage(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
