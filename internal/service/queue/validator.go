package queue_service

import (
	"context"

	"curriculum-push/internal/models"
	"curriculum-push/internal/repository"
)

// SlotValidator проверяет, свободен ли слот. Ничего не изменяет.
type SlotValidator struct{}

func (SlotValidator) IsSlotFree(ctx context.Context, repo repository.CurriculumRepository, key models.TimeKey) (bool, error) {
	existing, err := repo.GetByTimeKey(ctx, key)
	if err != nil {
		return false, err
	}
	return existing == nil, nil
}
