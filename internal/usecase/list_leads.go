package usecase

import (
	"context"

	"github.com/fsrviagens/leads-api/internal/entity"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type ListLeadsUseCase struct {
	Repo entity.LeadRepositoryInterface
}

func NewListLeadsUseCase(repo entity.LeadRepositoryInterface) *ListLeadsUseCase {
	return &ListLeadsUseCase{Repo: repo}
}

// Execute devolve os leads mais recentes primeiro.
func (uc *ListLeadsUseCase) Execute(ctx context.Context, input ListLeadsInput) ([]*entity.Lead, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	leads, err := uc.Repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, newStorageError(err)
	}
	return leads, nil
}
