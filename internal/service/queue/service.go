package queue_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"curriculum-push/internal/calendar"
	"curriculum-push/internal/lock"
	"curriculum-push/internal/metrics"
	"curriculum-push/internal/models"
	"curriculum-push/internal/repository"
	"curriculum-push/internal/service"

	"go.uber.org/zap"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

const (
	opListAll      = "list_all"
	opListUpcoming = "list_upcoming"
	opAdd          = "add"
	opUpdate       = "update"
	opDeleteMany   = "delete_many"
	opListPage     = "list_page"
	opReset        = "reset"
)

type queueService struct {
	store     repository.CurriculumStore
	resolver  calendar.Resolver
	locker    lock.Locker
	metrics   metrics.Recorder
	logger    *zap.Logger
	validator SlotValidator
}

func NewQueueService(
	store repository.CurriculumStore,
	resolver calendar.Resolver,
	locker lock.Locker,
	recorder metrics.Recorder,
	logger *zap.Logger,
) service.CurriculumQueueService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &queueService{
		store:    store,
		resolver: resolver,
		locker:   locker,
		metrics:  recorder,
		logger:   logger.Named("queue"),
	}
}

func (s *queueService) ListAll(ctx context.Context) (res *models.Result, err error) {
	defer s.observe(opListAll, time.Now(), &err)

	entries, err := s.store.GetAll(ctx)
	if err == nil && entries == nil {
		err = errors.New("store returned no list")
	}
	if err != nil {
		return s.fail(opListAll, "Не удалось загрузить очередь", fmt.Errorf("%w: %w", ErrLoadFailed, err))
	}

	s.logger.Info("queue listed", zap.Int("count", len(entries)))
	return models.Success().
		WithMessage("Очередь загружена").
		WithData(models.DataKeyList, entries), nil
}

func (s *queueService) ListUpcoming(ctx context.Context) (res *models.Result, err error) {
	defer s.observe(opListUpcoming, time.Now(), &err)

	const message = "Не удалось загрузить предстоящие занятия"

	pos, err := s.resolver.Current(ctx)
	if err != nil {
		return s.fail(opListUpcoming, message, fmt.Errorf("%w: resolve current week: %w", ErrLoadFailed, err))
	}

	entries, err := s.store.GetUpcoming(ctx, pos.Period, pos.Week)
	if err == nil && entries == nil {
		err = errors.New("store returned no list")
	}
	if err != nil {
		return s.fail(opListUpcoming, message, fmt.Errorf("%w: %w", ErrLoadFailed, err),
			zap.Int("period", pos.Period), zap.Int("week", pos.Week))
	}

	s.logger.Info("upcoming listed",
		zap.Int("period", pos.Period), zap.Int("week", pos.Week), zap.Int("count", len(entries)))
	return models.Success().
		WithMessage("Предстоящие занятия загружены").
		WithData(models.DataKeyList, entries).
		WithData(models.DataKeyPosition, pos), nil
}

func (s *queueService) Add(ctx context.Context, entry models.CurriculumEntry) (res *models.Result, err error) {
	defer s.observe(opAdd, time.Now(), &err)

	entry.ID = 0
	key := entry.TimeKey()
	fields := entryFields(entry)

	if err := entry.Validate(false); err != nil {
		return s.fail(opAdd, "Некорректные данные записи", invalidEntry(err), fields...)
	}

	unlock, err := s.locker.Lock(ctx, lock.SlotKey(key))
	if err != nil {
		return s.fail(opAdd, fmt.Sprintf("Не удалось добавить курс «%s»", entry.CourseName),
			fmt.Errorf("%w: %w", ErrInsertFailed, err), fields...)
	}
	defer unlock()

	err = s.store.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
		free, err := s.validator.IsSlotFree(ctx, repo, key)
		if err != nil {
			return fmt.Errorf("check slot %s: %w", key, err)
		}
		if !free {
			return &SlotConflictError{Key: key, CourseName: entry.CourseName}
		}
		return repo.Insert(ctx, &entry)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTimeKey) {
			err = &SlotConflictError{Key: key, CourseName: entry.CourseName, Err: err}
		}
		if errors.Is(err, ErrTimeConflict) {
			return s.fail(opAdd, "Время занято", err, fields...)
		}
		return s.fail(opAdd, fmt.Sprintf("Не удалось добавить курс «%s»", entry.CourseName),
			fmt.Errorf("%w: %w", ErrInsertFailed, err), fields...)
	}

	s.logger.Info("entry added", entryFields(entry)...)
	return models.Success().
		WithMessage(fmt.Sprintf("Курс «%s» добавлен в очередь", entry.CourseName)).
		WithDescription(fmt.Sprintf("ID %d, %s", entry.ID, key)).
		WithData(models.DataKeyEntry, entry), nil
}

// Update не проверяет новый слот на занятость: конфликт отсекает
// только ограничение уникальности в хранилище.
func (s *queueService) Update(ctx context.Context, entry models.CurriculumEntry) (res *models.Result, err error) {
	defer s.observe(opUpdate, time.Now(), &err)

	fields := entryFields(entry)

	if err := entry.Validate(true); err != nil {
		return s.fail(opUpdate, "Некорректные данные записи", invalidEntry(err), fields...)
	}

	err = s.store.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
		existing, err := repo.GetByID(ctx, entry.ID)
		if err != nil {
			return fmt.Errorf("lookup curriculum %d: %w", entry.ID, err)
		}
		if existing == nil {
			return &MissingIDsError{IDs: []int{entry.ID}}
		}
		return repo.Update(ctx, entry)
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return s.fail(opUpdate, "Запись не найдена", err, fields...)
		}
		return s.fail(opUpdate, fmt.Sprintf("Не удалось обновить запись %d", entry.ID),
			fmt.Errorf("%w: %w", ErrUpdateFailed, err), fields...)
	}

	s.logger.Info("entry updated", fields...)
	return models.Success().
		WithMessage(fmt.Sprintf("Запись %d обновлена", entry.ID)).
		WithDescription(fmt.Sprintf("курс «%s», %s", entry.CourseName, entry.TimeKey())).
		WithData(models.DataKeyEntry, entry), nil
}

// DeleteMany сначала проверяет все ID, затем удаляет их по порядку.
// Любая ошибка откатывает весь пакет.
func (s *queueService) DeleteMany(ctx context.Context, ids []int) (res *models.Result, err error) {
	defer s.observe(opDeleteMany, time.Now(), &err)

	idsField := zap.Ints("ids", ids)

	err = s.store.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
		var missing []int
		for _, id := range ids {
			existing, err := repo.GetByID(ctx, id)
			if err != nil {
				return fmt.Errorf("%w: lookup curriculum %d: %w", ErrLoadFailed, id, err)
			}
			if existing == nil {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return &MissingIDsError{IDs: missing}
		}

		for _, id := range ids {
			if err := repo.DeleteByID(ctx, id); err != nil {
				return &DeleteError{ID: id, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return s.fail(opDeleteMany, "Записи не найдены", err, idsField)
		}
		if errors.Is(err, ErrLoadFailed) {
			return s.fail(opDeleteMany, "Не удалось проверить записи", err, idsField)
		}
		if !errors.Is(err, ErrDeleteFailed) {
			err = fmt.Errorf("%w: %w", ErrDeleteFailed, err)
		}
		return s.fail(opDeleteMany, "Не удалось удалить записи", err, idsField)
	}

	s.logger.Info("entries deleted", idsField)
	return models.Success().
		WithMessage("Записи удалены").
		WithDescription(fmt.Sprintf("удалено записей: %d", len(ids))).
		WithData(models.DataKeyCount, len(ids)), nil
}

func (s *queueService) ListPage(ctx context.Context, pageIndex, pageSize int) (res *models.Result, err error) {
	defer s.observe(opListPage, time.Now(), &err)

	if pageSize == 0 {
		pageSize = DefaultPageSize
	}

	var problems models.ValidationErrors
	if pageIndex < 1 {
		problems = append(problems, models.FieldError{Field: "page", Reason: "must be positive"})
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		problems = append(problems, models.FieldError{Field: "size", Reason: fmt.Sprintf("must be between 1 and %d", MaxPageSize)})
	}
	if len(problems) > 0 {
		return s.fail(opListPage, "Некорректные параметры страницы", &InvalidEntryError{Fields: problems},
			zap.Int("page", pageIndex), zap.Int("size", pageSize))
	}

	page := models.Page{PageIndex: pageIndex, PageSize: pageSize}
	err = s.store.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
		total, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		entries, err := repo.GetPage(ctx, (pageIndex-1)*pageSize, pageSize)
		if err != nil {
			return err
		}
		page.TotalCount = total
		page.Entries = entries
		return nil
	})
	if err != nil {
		return s.fail(opListPage, "Не удалось загрузить очередь", fmt.Errorf("%w: %w", ErrLoadFailed, err),
			zap.Int("page", pageIndex), zap.Int("size", pageSize))
	}

	return models.Success().
		WithMessage("Страница загружена").
		WithData(models.DataKeyPage, page), nil
}

func (s *queueService) Reset(ctx context.Context) (res *models.Result, err error) {
	defer s.observe(opReset, time.Now(), &err)

	var removed int
	err = s.store.RunInTransaction(ctx, func(repo repository.CurriculumRepository) error {
		var err error
		removed, err = repo.DeleteAll(ctx)
		return err
	})
	if err != nil {
		return s.fail(opReset, "Не удалось очистить очередь", fmt.Errorf("%w: %w", ErrDeleteFailed, err))
	}

	s.logger.Info("queue reset", zap.Int("removed", removed))
	return models.Success().
		WithMessage("Очередь очищена").
		WithDescription(fmt.Sprintf("удалено записей: %d", removed)).
		WithData(models.DataKeyCount, removed), nil
}

func (s *queueService) fail(op, message string, err error, fields ...zap.Field) (*models.Result, error) {
	fields = append(fields, zap.String("operation", op), zap.Error(err))
	s.logger.Error(message, fields...)

	return models.Failed().
		WithMessage(message).
		WithDescription(err.Error()), err
}

func (s *queueService) observe(op string, started time.Time, err *error) {
	outcome := metrics.OutcomeSuccess
	if *err != nil {
		outcome = metrics.OutcomeFailure
	}
	s.metrics.Observe(op, outcome, time.Since(started))
}

func entryFields(e models.CurriculumEntry) []zap.Field {
	return []zap.Field{
		zap.Int("curriculum_id", e.ID),
		zap.String("course_name", e.CourseName),
		zap.Int("period", e.Period),
		zap.Int("week", e.Week),
		zap.Int("section", e.Section),
	}
}
