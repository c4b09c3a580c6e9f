package service

import (
	"context"
	"time"

	"restopos/internal/dto"
	"restopos/internal/repository"
)

type TableService interface {
	// ListOccupiedWithPending feeds the cashier's "tables to charge" screen.
	ListOccupiedWithPending(ctx context.Context) ([]dto.OccupiedTableResponse, error)
}

type tableService struct {
	repo repository.TableRepository
}

func NewTableService(repo repository.TableRepository) TableService {
	return &tableService{repo: repo}
}

func (s *tableService) ListOccupiedWithPending(ctx context.Context) ([]dto.OccupiedTableResponse, error) {
	orders, err := s.repo.ListOccupiedWithOpenOrders(ctx)
	if err != nil {
		return nil, domainOrPersistence(err, "list occupied tables")
	}

	out := make([]dto.OccupiedTableResponse, 0, len(orders))
	for i := range orders {
		o := &orders[i]
		if o.Table == nil {
			continue
		}
		// Same figures the settlement planner will demand.
		sub, tax, total := o.PendingTotals()
		out = append(out, dto.OccupiedTableResponse{
			TableID:         o.Table.ID,
			TableNumber:     o.Table.Number,
			AreaName:        o.Table.AreaName(),
			OrderID:         o.ID,
			OrderStatus:     o.Status,
			OpenedAt:        o.OpenedAt.Format(time.RFC3339),
			PendingSubtotal: sub,
			PendingTax:      tax,
			PendingTotal:    total,
		})
	}
	return out, nil
}
