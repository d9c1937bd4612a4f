package curriculum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"curriculum-push/internal/models"
	"curriculum-push/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const columns = `curriculum_id, course_name, curriculum_period, curriculum_week, curriculum_section,
		classroom, teacher_name, remark, created_at, updated_at`

type curriculumRepository struct {
	db *sqlx.DB // nil внутри транзакции
	q  sqlx.ExtContext
}

func NewCurriculumRepository(db *sqlx.DB) repository.CurriculumStore {
	return &curriculumRepository{db: db, q: db}
}

func (r *curriculumRepository) RunInTransaction(ctx context.Context, fn func(repo repository.CurriculumRepository) error) error {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", repository.ErrStoreUnavailable, err)
	}

	if err := fn(&curriculumRepository{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", classify(err))
	}
	return nil
}

func (r *curriculumRepository) GetAll(ctx context.Context) ([]models.CurriculumEntry, error) {
	query := `SELECT ` + columns + ` FROM curriculum_data ORDER BY curriculum_id`

	entries := []models.CurriculumEntry{}
	if err := sqlx.SelectContext(ctx, r.q, &entries, query); err != nil {
		return nil, fmt.Errorf("select curriculum: %w", unavailable(err))
	}
	return entries, nil
}

func (r *curriculumRepository) GetByID(ctx context.Context, id int) (*models.CurriculumEntry, error) {
	query := r.q.Rebind(`SELECT ` + columns + ` FROM curriculum_data WHERE curriculum_id = ?`)

	var entry models.CurriculumEntry
	err := sqlx.GetContext(ctx, r.q, &entry, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select curriculum %d: %w", id, unavailable(err))
	}
	return &entry, nil
}

func (r *curriculumRepository) GetByTimeKey(ctx context.Context, key models.TimeKey) (*models.CurriculumEntry, error) {
	query := r.q.Rebind(`SELECT ` + columns + ` FROM curriculum_data
		WHERE curriculum_period = ? AND curriculum_week = ? AND curriculum_section = ?`)

	var entry models.CurriculumEntry
	err := sqlx.GetContext(ctx, r.q, &entry, query, key.Period, key.Week, key.Section)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select curriculum at %s: %w", key, unavailable(err))
	}
	return &entry, nil
}

func (r *curriculumRepository) GetUpcoming(ctx context.Context, period, week int) ([]models.CurriculumEntry, error) {
	query := r.q.Rebind(`SELECT ` + columns + ` FROM curriculum_data
		WHERE curriculum_period > ? OR (curriculum_period = ? AND curriculum_week >= ?)
		ORDER BY curriculum_period, curriculum_week, curriculum_section`)

	entries := []models.CurriculumEntry{}
	if err := sqlx.SelectContext(ctx, r.q, &entries, query, period, period, week); err != nil {
		return nil, fmt.Errorf("select upcoming curriculum: %w", unavailable(err))
	}
	return entries, nil
}

func (r *curriculumRepository) Insert(ctx context.Context, entry *models.CurriculumEntry) error {
	query := r.q.Rebind(`
		INSERT INTO curriculum_data
		(course_name, curriculum_period, curriculum_week, curriculum_section,
		 classroom, teacher_name, remark, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING curriculum_id
	`)

	now := time.Now().UTC()
	err := r.q.QueryRowxContext(ctx, query,
		entry.CourseName,
		entry.Period,
		entry.Week,
		entry.Section,
		entry.Classroom,
		entry.TeacherName,
		entry.Remark,
		now,
		now,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert curriculum at %s: %w", entry.TimeKey(), classify(err))
	}

	entry.CreatedAt = now
	entry.UpdatedAt = now
	return nil
}

func (r *curriculumRepository) Update(ctx context.Context, entry models.CurriculumEntry) error {
	query := r.q.Rebind(`
		UPDATE curriculum_data SET
			course_name = ?, curriculum_period = ?, curriculum_week = ?, curriculum_section = ?,
			classroom = ?, teacher_name = ?, remark = ?, updated_at = ?
		WHERE curriculum_id = ?
	`)

	result, err := r.q.ExecContext(ctx, query,
		entry.CourseName,
		entry.Period,
		entry.Week,
		entry.Section,
		entry.Classroom,
		entry.TeacherName,
		entry.Remark,
		time.Now().UTC(),
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("update curriculum %d: %w", entry.ID, classify(err))
	}

	return expectAffected(result, entry.ID)
}

func (r *curriculumRepository) DeleteByID(ctx context.Context, id int) error {
	query := r.q.Rebind(`DELETE FROM curriculum_data WHERE curriculum_id = ?`)

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete curriculum %d: %w", id, classify(err))
	}

	return expectAffected(result, id)
}

func (r *curriculumRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.q, &count, `SELECT COUNT(*) FROM curriculum_data`); err != nil {
		return 0, fmt.Errorf("count curriculum: %w", unavailable(err))
	}
	return count, nil
}

func (r *curriculumRepository) GetPage(ctx context.Context, offset, limit int) ([]models.CurriculumEntry, error) {
	query := r.q.Rebind(`SELECT ` + columns + ` FROM curriculum_data
		ORDER BY curriculum_period, curriculum_week, curriculum_section
		LIMIT ? OFFSET ?`)

	entries := []models.CurriculumEntry{}
	if err := sqlx.SelectContext(ctx, r.q, &entries, query, limit, offset); err != nil {
		return nil, fmt.Errorf("select curriculum page: %w", unavailable(err))
	}
	return entries, nil
}

func (r *curriculumRepository) DeleteAll(ctx context.Context) (int, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM curriculum_data`)
	if err != nil {
		return 0, fmt.Errorf("delete all curriculum: %w", classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

func expectAffected(result sql.Result, id int) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("curriculum %d: %w", id, repository.ErrNotFound)
	}

	return nil
}

// classify переводит ошибки драйверов в ошибки репозитория
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", repository.ErrDuplicateTimeKey, pqErr.Constraint)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && isUniqueViolation(liteErr) {
		return fmt.Errorf("%w: %s", repository.ErrDuplicateTimeKey, liteErr.Error())
	}

	return err
}

func isUniqueViolation(err *sqlite.Error) bool {
	switch err.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "UNIQUE")
	}
	return false
}

func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
}
