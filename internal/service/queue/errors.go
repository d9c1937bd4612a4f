package queue_service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"curriculum-push/internal/models"
)

var (
	ErrLoadFailed     = errors.New("load failed")
	ErrTimeConflict   = errors.New("time conflict")
	ErrRecordNotFound = errors.New("record not found")
	ErrInsertFailed   = errors.New("insert failed")
	ErrUpdateFailed   = errors.New("update failed")
	ErrDeleteFailed   = errors.New("delete failed")
	ErrInvalidEntry   = errors.New("invalid entry")
)

// MissingIDsError перечисляет все отсутствующие ID в порядке запроса.
type MissingIDsError struct {
	IDs []int
}

func (e *MissingIDsError) Error() string {
	ids := make([]string, 0, len(e.IDs))
	for _, id := range e.IDs {
		ids = append(ids, strconv.Itoa(id))
	}
	if len(ids) == 1 {
		return fmt.Sprintf("запись с ID %s не существует", ids[0])
	}
	return fmt.Sprintf("записи с ID %s не существуют", strings.Join(ids, ", "))
}

func (e *MissingIDsError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// SlotConflictError - слот уже занят другой записью.
type SlotConflictError struct {
	Key        models.TimeKey
	CourseName string
	Err        error // ошибка уникальности из хранилища, если конфликт нашла база
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("слот (%s) уже занят, курс «%s» не добавлен", e.Key, e.CourseName)
}

func (e *SlotConflictError) Is(target error) bool {
	return target == ErrTimeConflict
}

func (e *SlotConflictError) Unwrap() error {
	return e.Err
}

type InvalidEntryError struct {
	Fields models.ValidationErrors
}

func (e *InvalidEntryError) Error() string {
	return "некорректная запись: " + e.Fields.Error()
}

func (e *InvalidEntryError) Is(target error) bool {
	return target == ErrInvalidEntry
}

// DeleteError - первая неудачная попытка удаления в пакете.
type DeleteError struct {
	ID  int
	Err error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("ошибка при удалении записи с ID %d: %v", e.ID, e.Err)
}

func (e *DeleteError) Is(target error) bool {
	return target == ErrDeleteFailed
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

func invalidEntry(err error) error {
	var fields models.ValidationErrors
	if errors.As(err, &fields) {
		return &InvalidEntryError{Fields: fields}
	}
	return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
}
