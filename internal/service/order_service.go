package service

import (
	"context"
	"errors"
	"time"

	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type OrderService interface {
	// AppendLines sends items to the kitchen for a table, opening an order
	// (and occupying the table) when the table has none.
	AppendLines(ctx context.Context, actorID uuid.UUID, req dto.AppendLinesRequest) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, id uint) (*dto.OrderResponse, error)
	// ListOrders pages orders newest first, optionally by table and status.
	ListOrders(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	// RemoveLine deletes a pending line. Removing the last line deletes the
	// order and frees its table.
	RemoveLine(ctx context.Context, orderID, lineID uint) (*dto.RemoveLineResponse, error)
}

type orderService struct {
	orders repository.OrderRepository
	tables repository.TableRepository
	now    func() time.Time
}

func NewOrderService(orders repository.OrderRepository, tables repository.TableRepository) OrderService {
	return &orderService{orders: orders, tables: tables, now: time.Now}
}

func (s *orderService) AppendLines(ctx context.Context, actorID uuid.UUID, req dto.AppendLinesRequest) (*dto.OrderResponse, error) {
	var orderID uint
	var opened bool

	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		table, err := s.tables.FindForUpdate(ctx, tx, req.TableID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !table.Active) {
			return ErrTableNotFound
		}
		if err != nil {
			return err
		}

		order, err := s.orders.FindOpenByTableForUpdate(ctx, tx, table.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			tableID := table.ID
			order = &model.Order{
				TableID:  &tableID,
				OpenedBy: actorID,
				Status:   model.OrderOpen,
				Notes:    req.Notes,
				OpenedAt: s.now(),
			}
			if err := s.orders.Create(ctx, tx, order); err != nil {
				return err
			}
			if err := s.tables.SetStatus(ctx, tx, table.ID, model.TableOccupied); err != nil {
				return err
			}
			opened = true
		case err != nil:
			return err
		}

		lines := make([]model.OrderLine, 0, len(req.Items))
		for _, it := range req.Items {
			lines = append(lines, model.OrderLine{
				ProductID:    it.ProductID,
				ProductName:  it.ProductName,
				Quantity:     it.Quantity,
				UnitPrice:    it.UnitPrice,
				SeatPosition: it.SeatPosition,
				Notes:        it.Notes,
			})
		}
		if err := s.orders.AddLines(ctx, tx, order.ID, lines); err != nil {
			return err
		}

		order.Lines = append(order.Lines, lines...)
		order.Recalculate()
		if err := s.orders.UpdateTotals(ctx, tx, order); err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, domainOrPersistence(err, "append order lines")
	}

	log.Info().
		Uint("order_id", orderID).
		Uint("table_id", req.TableID).
		Int("items", len(req.Items)).
		Bool("opened", opened).
		Msg("items sent to kitchen")

	return s.GetOrder(ctx, orderID)
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, domainOrPersistence(err, "find order")
	}
	return orderToResponse(order), nil
}

func (s *orderService) ListOrders(ctx context.Context, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, domainOrPersistence(err, "list orders")
	}

	data := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		data = append(data, *orderToResponse(&orders[i]))
	}
	return &dto.OrderListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *orderService) RemoveLine(ctx context.Context, orderID, lineID uint) (*dto.RemoveLineResponse, error) {
	resp := &dto.RemoveLineResponse{}

	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		order, err := lockOrder(ctx, tx, s.orders, s.tables, orderID)
		if err != nil {
			return err
		}

		// Invoiced lines are immutable and answer LINE_NOT_FOUND like a
		// missing one.
		n, err := s.orders.DeleteLine(ctx, tx, order.ID, lineID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrLineNotFound
		}

		remaining := make([]model.OrderLine, 0, len(order.Lines))
		for _, l := range order.Lines {
			if l.ID != lineID {
				remaining = append(remaining, l)
			}
		}
		order.Lines = remaining

		if len(remaining) == 0 {
			if err := s.orders.Delete(ctx, tx, order.ID); err != nil {
				return err
			}
			resp.OrderDeleted = true
			return s.freeTable(ctx, tx, order, resp)
		}

		order.Recalculate()
		if err := s.orders.UpdateTotals(ctx, tx, order); err != nil {
			return err
		}
		// Only already-invoiced lines left: nothing to collect any more.
		if !order.HasPending() {
			if err := s.orders.UpdateStatus(ctx, tx, order.ID, model.OrderSettled); err != nil {
				return err
			}
			return s.freeTable(ctx, tx, order, resp)
		}
		return nil
	})
	if err != nil {
		return nil, domainOrPersistence(err, "remove order line")
	}

	log.Info().
		Uint("order_id", orderID).
		Uint("line_id", lineID).
		Bool("order_deleted", resp.OrderDeleted).
		Bool("table_freed", resp.TableFreed).
		Msg("order line removed")
	return resp, nil
}

func (s *orderService) freeTable(ctx context.Context, tx *gorm.DB, order *model.Order, resp *dto.RemoveLineResponse) error {
	if order.TableID == nil {
		return nil
	}
	if err := s.tables.SetStatus(ctx, tx, *order.TableID, model.TableFree); err != nil {
		return err
	}
	resp.TableFreed = true
	return nil
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	pendingSub, pendingTax, pendingTotal := o.PendingTotals()
	resp := &dto.OrderResponse{
		ID:              o.ID,
		TableID:         o.TableID,
		Status:          o.Status,
		OpenedBy:        o.OpenedBy.String(),
		OpenedAt:        o.OpenedAt.Format(time.RFC3339),
		Notes:           o.Notes,
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		Total:           o.Total,
		PendingSubtotal: pendingSub,
		PendingTax:      pendingTax,
		PendingTotal:    pendingTotal,
		Lines:           make([]dto.OrderLineResponse, 0, len(o.Lines)),
	}
	if o.Table != nil {
		number := o.Table.Number
		resp.TableNumber = &number
		resp.AreaName = o.Table.AreaName()
	}
	for _, l := range o.Lines {
		resp.Lines = append(resp.Lines, dto.OrderLineResponse{
			ID:           l.ID,
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			Subtotal:     l.Subtotal(),
			SeatPosition: l.SeatPosition,
			Invoiced:     l.Invoiced,
			InvoiceID:    l.InvoiceID,
			Notes:        l.Notes,
		})
	}
	return resp
}
