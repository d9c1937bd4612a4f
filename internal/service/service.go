package service

import (
	"context"

	"curriculum-push/internal/models"
)

// CurriculumQueueService - фасад очереди пуш-уведомлений о занятиях.
// Конверт заполнен всегда, ошибка nil только при успехе.
type CurriculumQueueService interface {
	ListAll(ctx context.Context) (*models.Result, error)
	ListUpcoming(ctx context.Context) (*models.Result, error)
	Add(ctx context.Context, entry models.CurriculumEntry) (*models.Result, error)
	Update(ctx context.Context, entry models.CurriculumEntry) (*models.Result, error)
	DeleteMany(ctx context.Context, ids []int) (*models.Result, error)

	ListPage(ctx context.Context, pageIndex, pageSize int) (*models.Result, error)
	Reset(ctx context.Context) (*models.Result, error)
}
