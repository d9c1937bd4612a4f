package lock

import (
	"context"
	"errors"
	"fmt"

	"curriculum-push/internal/models"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Locker - блокировка по ключу. unlock безопасно вызывать один раз.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// SlotKey - ключ блокировки слота расписания.
func SlotKey(k models.TimeKey) string {
	return fmt.Sprintf("curriculum:slot:%d:%d:%d", k.Period, k.Week, k.Section)
}
