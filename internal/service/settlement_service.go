package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/money"
	"restopos/internal/repository"
	"restopos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type SettlementService interface {
	// Settle invoices an order's pending lines against the requested payments.
	// actorID is the authenticated user recorded as the invoices' creator.
	Settle(ctx context.Context, actorID uuid.UUID, orderID uint, req dto.SettlementRequest) (*dto.SettlementResponse, error)
}

type settlementService struct {
	orders     repository.OrderRepository
	invoices   repository.InvoiceRepository
	tables     repository.TableRepository
	dispatcher *worker.Dispatcher
	now        func() time.Time
}

func NewSettlementService(
	orders repository.OrderRepository,
	invoices repository.InvoiceRepository,
	tables repository.TableRepository,
	dispatcher *worker.Dispatcher,
) SettlementService {
	return &settlementService{
		orders:     orders,
		invoices:   invoices,
		tables:     tables,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// ── Settle ────────────────────────────────────────────────────────────────────
// One transaction per request:
//   1. Lock the table row, then the order row, then read its lines
//      (pending set cannot go stale)
//   2. Plan: validate payments and partition the pending lines
//   3. Take the next invoice number (counter row locked too)
//   4. Write invoice(s) with line snapshots and payment records
//   5. Mark the attributed lines invoiced, each exactly once
//   6. Zero pending lines left ⇒ order settled, table freed
//   7. COMMIT, then enqueue cache warming (best effort)

func (s *settlementService) Settle(ctx context.Context, actorID uuid.UUID, orderID uint, req dto.SettlementRequest) (*dto.SettlementResponse, error) {
	payments := paymentsFromRequest(req.Payments)

	var (
		created    []model.Invoice
		isSplit    bool
		tableFreed bool
		pending    int64
	)

	err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		order, err := lockOrder(ctx, tx, s.orders, s.tables, orderID)
		if err != nil {
			return err
		}
		if req.TableID != nil && (order.TableID == nil || *order.TableID != *req.TableID) {
			return ErrTableMismatch
		}

		plan, err := PlanSettlement(order.PendingLines(), payments, PlanOptions{SingleInvoice: req.SingleInvoice})
		if err != nil {
			return err
		}

		number, err := s.invoices.NextNumber(ctx, tx, s.now().Year())
		if err != nil {
			return fmt.Errorf("next invoice number: %w", err)
		}

		switch p := plan.(type) {
		case *SinglePlan:
			inv, err := s.issueSingle(ctx, tx, actorID, order, number, p)
			if err != nil {
				return err
			}
			created = []model.Invoice{*inv}
		case *SplitPlan:
			isSplit = true
			created, err = s.issueSplit(ctx, tx, actorID, order, number, p)
			if err != nil {
				return err
			}
		}

		pending, err = s.orders.CountPending(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return nil
		}
		if err := s.orders.UpdateStatus(ctx, tx, order.ID, model.OrderSettled); err != nil {
			return err
		}
		if order.TableID != nil {
			if err := s.tables.SetStatus(ctx, tx, *order.TableID, model.TableFree); err != nil {
				return err
			}
			tableFreed = true
		}
		return nil
	})
	if err != nil {
		return nil, domainOrPersistence(err, "settle order")
	}

	ids := make([]uint, 0, len(created))
	resp := &dto.SettlementResponse{
		Invoices:     make([]dto.InvoiceResponse, 0, len(created)),
		IsSplit:      isSplit,
		TableFreed:   tableFreed,
		ItemsPending: pending > 0,
	}
	for i := range created {
		ids = append(ids, created[i].ID)
		resp.Invoices = append(resp.Invoices, *invoiceToResponse(&created[i]))
	}

	log.Info().
		Uint("order_id", orderID).
		Uints("invoice_ids", ids).
		Bool("is_split", isSplit).
		Bool("table_freed", tableFreed).
		Int64("items_pending", pending).
		Msg("settlement committed")

	for i := range created {
		payload := worker.InvoiceIssuedPayload{
			InvoiceID: created[i].ID,
			Number:    created[i].Number,
			OrderID:   created[i].OrderID,
		}
		if err := s.dispatcher.EnqueueInvoiceIssued(ctx, payload); err != nil {
			log.Warn().Err(err).Uint("invoice_id", created[i].ID).Msg("could not enqueue invoice_issued job")
		}
	}

	return resp, nil
}

func (s *settlementService) issueSingle(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, order *model.Order, number string, p *SinglePlan) (*model.Invoice, error) {
	inv := &model.Invoice{
		Number:        number,
		OrderID:       order.ID,
		TableID:       order.TableID,
		PayerName:     p.Payments[0].PayerName,
		Subtotal:      money.Round(p.Subtotal),
		Tax:           money.Round(p.Tax),
		Total:         money.Round(p.Total),
		PaymentMethod: paymentMethodOf(p.Payments),
		CreatedBy:     actorID,
		IsSplit:       false,
		SplitSequence: 1,
		Kind:          model.InvoiceSingle,
	}
	for _, l := range p.Pending {
		inv.Lines = append(inv.Lines, model.NewInvoiceLine(l))
	}
	for _, pay := range p.Payments {
		inv.Payments = append(inv.Payments, paymentRecord(pay))
	}

	if err := s.invoices.Create(ctx, tx, inv); err != nil {
		return nil, fmt.Errorf("create invoice %s: %w", number, err)
	}
	if err := s.orders.MarkInvoiced(ctx, tx, order.ID, lineIDsOf(p.Pending), inv.ID); err != nil {
		return nil, fmt.Errorf("mark lines of invoice %s: %w", number, err)
	}
	return inv, nil
}

func (s *settlementService) issueSplit(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, order *model.Order, base string, p *SplitPlan) ([]model.Invoice, error) {
	out := make([]model.Invoice, 0, len(p.Entries))
	var parentID *uint

	for _, e := range p.Entries {
		if e.AmountDerived {
			log.Warn().
				Uint("order_id", order.ID).
				Int("split_sequence", e.Sequence).
				Str("amount", e.Payment.Amount.StringFixed(2)).
				Str("lines_subtotal", model.SumLines(e.Lines).StringFixed(2)).
				Msg("split amount does not match its lines, subtotal inferred from amount")
		}

		number := base + "-" + splitSuffix(e.Sequence)
		inv := model.Invoice{
			Number:          number,
			OrderID:         order.ID,
			TableID:         order.TableID,
			PayerName:       e.Payment.PayerName,
			Subtotal:        money.Round(e.Subtotal),
			Tax:             money.Round(e.Tax),
			Total:           money.Round(e.Total),
			PaymentMethod:   e.Payment.Method,
			CreatedBy:       actorID,
			IsSplit:         true,
			ParentInvoiceID: parentID,
			SplitSequence:   e.Sequence,
			Kind:            model.InvoiceSplit,
			Payments:        []model.InvoicePayment{paymentRecord(e.Payment)},
		}
		for _, l := range e.Lines {
			inv.Lines = append(inv.Lines, model.NewInvoiceLine(l))
		}

		if err := s.invoices.Create(ctx, tx, &inv); err != nil {
			return nil, fmt.Errorf("create invoice %s: %w", number, err)
		}
		if parentID == nil {
			id := inv.ID
			parentID = &id
		}
		if err := s.orders.MarkInvoiced(ctx, tx, order.ID, lineIDsOf(e.Lines), inv.ID); err != nil {
			return nil, fmt.Errorf("mark lines of invoice %s: %w", number, err)
		}
		out = append(out, inv)
	}
	return out, nil
}

// paymentsFromRequest resolves each payment's scope once. line_ids wins
// over seat_positions when both are sent.
func paymentsFromRequest(reqs []dto.PaymentRequest) []Payment {
	out := make([]Payment, 0, len(reqs))
	for _, r := range reqs {
		scope := AllPending()
		switch {
		case len(r.LineIDs) > 0:
			scope = ByLineIDs(r.LineIDs...)
		case len(r.SeatPositions) > 0:
			scope = BySeatPositions(r.SeatPositions...)
		}
		out = append(out, Payment{
			PayerName: strings.TrimSpace(r.PayerName),
			Method:    strings.ToLower(strings.TrimSpace(r.Method)),
			Amount:    r.Amount,
			Reference: r.Reference,
			Scope:     scope,
		})
	}
	return out
}

func paymentRecord(p Payment) model.InvoicePayment {
	return model.InvoicePayment{
		PayerName:             p.PayerName,
		Method:                p.Method,
		Amount:                money.Round(p.Amount),
		Reference:             p.Reference,
		AssignedLineIDs:       p.Scope.LineIDs(),
		AssignedSeatPositions: p.Scope.SeatPositions(),
	}
}

func paymentMethodOf(payments []Payment) string {
	if len(payments) == 1 {
		return payments[0].Method
	}
	return model.MethodMultiple
}

func lineIDsOf(lines []model.OrderLine) []uint {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ID)
	}
	return ids
}

// splitSuffix maps 1 → A, 26 → Z, 27 → AA.
func splitSuffix(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
