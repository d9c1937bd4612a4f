package models

import (
	"fmt"
	"strings"
	"time"
)

// CurriculumEntry - запись очереди пуш-уведомлений о занятии.
// Идентичность слота определяется TimeKey, ID нужен только для адресации.
type CurriculumEntry struct {
	ID          int       `db:"curriculum_id" json:"curriculum_id"`
	CourseName  string    `db:"course_name" json:"course_name"`
	Period      int       `db:"curriculum_period" json:"curriculum_period"`   // учебная неделя
	Week        int       `db:"curriculum_week" json:"curriculum_week"`       // день недели, 1=понедельник
	Section     int       `db:"curriculum_section" json:"curriculum_section"` // номер пары
	Classroom   string    `db:"classroom" json:"classroom"`
	TeacherName string    `db:"teacher_name" json:"teacher_name"`
	Remark      string    `db:"remark" json:"remark"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TimeKey - единственная ось конфликта между записями.
type TimeKey struct {
	Period  int `json:"period"`
	Week    int `json:"week"`
	Section int `json:"section"`
}

func (k TimeKey) String() string {
	return fmt.Sprintf("неделя %d, день %d, пара %d", k.Period, k.Week, k.Section)
}

func (e CurriculumEntry) TimeKey() TimeKey {
	return TimeKey{Period: e.Period, Week: e.Week, Section: e.Section}
}

// Position - текущая учебная неделя и день недели.
type Position struct {
	Period int `json:"period"`
	Week   int `json:"week"`
}

// Before сравнивает позиции лексикографически: сначала неделя, потом день.
func (p Position) Before(o Position) bool {
	if p.Period != o.Period {
		return p.Period < o.Period
	}
	return p.Week < o.Week
}

const (
	MaxPeriod     = 53
	MaxWeekday    = 7
	MaxSection    = 20
	MaxCourseName = 100
)

// FieldError описывает одно нарушение в полях записи.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Reason)
	}
	return strings.Join(parts, "; ")
}

// Validate проверяет поля записи. requireID нужен для обновления.
func (e CurriculumEntry) Validate(requireID bool) error {
	var errs ValidationErrors

	if requireID && e.ID <= 0 {
		errs = append(errs, FieldError{Field: "curriculum_id", Reason: "must be positive"})
	}
	name := strings.TrimSpace(e.CourseName)
	if name == "" {
		errs = append(errs, FieldError{Field: "course_name", Reason: "is required"})
	} else if len([]rune(name)) > MaxCourseName {
		errs = append(errs, FieldError{Field: "course_name", Reason: fmt.Sprintf("must be at most %d characters", MaxCourseName)})
	}
	if e.Period < 1 || e.Period > MaxPeriod {
		errs = append(errs, FieldError{Field: "curriculum_period", Reason: fmt.Sprintf("must be between 1 and %d", MaxPeriod)})
	}
	if e.Week < 1 || e.Week > MaxWeekday {
		errs = append(errs, FieldError{Field: "curriculum_week", Reason: fmt.Sprintf("must be between 1 and %d", MaxWeekday)})
	}
	if e.Section < 1 || e.Section > MaxSection {
		errs = append(errs, FieldError{Field: "curriculum_section", Reason: fmt.Sprintf("must be between 1 and %d", MaxSection)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
