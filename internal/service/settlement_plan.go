package service

import (
	"sort"
	"strings"

	"restopos/internal/model"
	"restopos/internal/money"

	"github.com/shopspring/decimal"
)

// ── Payment scope ─────────────────────────────────────────────────────────────

// ScopeKind tells which lines a payment is paying for.
type ScopeKind int

const (
	ScopeAllPending    ScopeKind = iota // claims the whole remaining bill
	ScopeLineIDs                        // claims specific order lines
	ScopeSeatPositions                  // claims every line of some seats
)

// PaymentScope is resolved once when the request is parsed; nothing
// downstream looks at the raw request fields again.
type PaymentScope struct {
	kind      ScopeKind
	lineIDs   map[uint]struct{}
	positions map[int]struct{}
}

// AllPending scopes a payment to every pending line.
func AllPending() PaymentScope { return PaymentScope{kind: ScopeAllPending} }

// ByLineIDs scopes a payment to the given order lines.
func ByLineIDs(ids ...uint) PaymentScope {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return PaymentScope{kind: ScopeLineIDs, lineIDs: set}
}

// BySeatPositions scopes a payment to the lines of the given seats.
func BySeatPositions(positions ...int) PaymentScope {
	set := make(map[int]struct{}, len(positions))
	for _, p := range positions {
		set[p] = struct{}{}
	}
	return PaymentScope{kind: ScopeSeatPositions, positions: set}
}

func (s PaymentScope) Kind() ScopeKind { return s.kind }

// Explicit is true when the payment names lines or seats.
func (s PaymentScope) Explicit() bool { return s.kind != ScopeAllPending }

// Covers reports whether line l falls inside the scope.
func (s PaymentScope) Covers(l model.OrderLine) bool {
	switch s.kind {
	case ScopeLineIDs:
		_, ok := s.lineIDs[l.ID]
		return ok
	case ScopeSeatPositions:
		if l.SeatPosition == nil {
			return false
		}
		_, ok := s.positions[*l.SeatPosition]
		return ok
	default:
		return true
	}
}

// LineIDs returns the requested line ids, sorted. Nil unless ScopeLineIDs.
func (s PaymentScope) LineIDs() []uint {
	if s.kind != ScopeLineIDs {
		return nil
	}
	out := make([]uint, 0, len(s.lineIDs))
	for id := range s.lineIDs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SeatPositions returns the requested seats, sorted. Nil unless ScopeSeatPositions.
func (s PaymentScope) SeatPositions() []int {
	if s.kind != ScopeSeatPositions {
		return nil
	}
	out := make([]int, 0, len(s.positions))
	for p := range s.positions {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (s PaymentScope) filter(lines []model.OrderLine) []model.OrderLine {
	out := make([]model.OrderLine, 0, len(lines))
	for _, l := range lines {
		if s.Covers(l) {
			out = append(out, l)
		}
	}
	return out
}

// ── Requested payment ─────────────────────────────────────────────────────────

// Payment is one requested payment, already parsed.
type Payment struct {
	PayerName string
	Method    string
	Amount    decimal.Decimal
	Reference *string
	Scope     PaymentScope
}

var validMethods = map[string]bool{
	model.MethodCash:     true,
	model.MethodCard:     true,
	model.MethodTransfer: true,
}

func (p Payment) validate(n int) error {
	if strings.TrimSpace(p.PayerName) == "" {
		return invalidPayment("El pago %d no tiene nombre de cliente", n)
	}
	if p.Method == "" {
		return invalidPayment("El pago %d no tiene método de pago", n)
	}
	if !validMethods[p.Method] {
		return invalidPayment("El pago %d tiene un método de pago desconocido: %s", n, p.Method)
	}
	if !p.Amount.IsPositive() {
		return invalidPayment("El pago %d debe tener un monto mayor a cero", n)
	}
	if !p.Amount.Equal(p.Amount.Round(2)) {
		return invalidPayment("El pago %d tiene más de dos decimales: %s", n, p.Amount.String())
	}
	return nil
}

// ── Plans ─────────────────────────────────────────────────────────────────────

// SettlementPlan is either a *SinglePlan or a *SplitPlan.
type SettlementPlan interface {
	// Lines returns every order line the plan settles, in pending order.
	Lines() []model.OrderLine
	isSettlementPlan()
}

// SinglePlan settles the whole pending bill with one invoice. It usually
// carries one payment; several when the caller asked for a single invoice
// paid with more than one instrument.
type SinglePlan struct {
	Payments []Payment
	Pending  []model.OrderLine
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

func (p *SinglePlan) Lines() []model.OrderLine { return p.Pending }
func (*SinglePlan) isSettlementPlan()           {}

// SplitEntry is one invoice of a split group.
type SplitEntry struct {
	Sequence int // 1-based, caller order
	Payment  Payment
	Lines    []model.OrderLine
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	// AmountDerived is set when the line math disagreed with the stated
	// amount and subtotal/tax were inferred from the amount instead.
	AmountDerived bool
}

// SplitPlan settles part or all of the pending bill with one invoice per payment.
type SplitPlan struct {
	Entries []SplitEntry
	Settled []model.OrderLine
}

func (p *SplitPlan) Lines() []model.OrderLine { return p.Settled }
func (*SplitPlan) isSettlementPlan()           {}

// PlanOptions tweaks classification.
type PlanOptions struct {
	// SingleInvoice forces one invoice with several payment records.
	// Only valid when no payment is scoped.
	SingleInvoice bool
}

// ── Planner ───────────────────────────────────────────────────────────────────

// PlanSettlement validates the requested payments against the pending lines
// and partitions them. It performs no I/O.
//
// Overlapping explicit claims are resolved in caller order: a line goes to
// the first payment that names it. Lines in the settled set that no explicit
// payment claimed are attributed once, to the first unscoped payment.
func PlanSettlement(pending []model.OrderLine, payments []Payment, opts PlanOptions) (SettlementPlan, error) {
	if len(pending) == 0 {
		return nil, ErrNoPendingItems
	}
	if len(payments) == 0 {
		return nil, invalidPayment("Debe proporcionar al menos un pago")
	}

	covered := make([][]model.OrderLine, len(payments))
	for i, p := range payments {
		if err := p.validate(i + 1); err != nil {
			return nil, err
		}
		covered[i] = p.Scope.filter(pending)
		if p.Scope.Explicit() && len(covered[i]) == 0 {
			return nil, invalidPayment("El pago %d no cubre ningún item pendiente", i+1)
		}
	}
	paid := sumPayments(payments)

	if opts.SingleInvoice || !isSplit(payments) {
		for i, p := range payments {
			if p.Scope.Explicit() {
				return nil, invalidPayment("El pago %d no puede asignar items en una factura única", i+1)
			}
		}
		subtotal := model.SumLines(pending)
		tax := money.Tax(subtotal)
		total := subtotal.Add(tax)
		if !money.ApproxEqual(paid, total) {
			return nil, paymentMismatch(paid, total, len(pending))
		}
		return &SinglePlan{
			Payments: payments,
			Pending:  pending,
			Subtotal: subtotal,
			Tax:      tax,
			Total:    total,
		}, nil
	}

	settled := unionInOrder(pending, covered)
	toSettle := money.Total(model.SumLines(settled))
	if !money.ApproxEqual(paid, toSettle) {
		return nil, paymentMismatch(paid, toSettle, len(settled))
	}

	claimed := make(map[uint]bool, len(settled))
	entries := make([]SplitEntry, len(payments))
	firstOpen := -1
	for i, p := range payments {
		e := SplitEntry{Sequence: i + 1, Payment: p, Total: p.Amount}
		if p.Scope.Explicit() {
			for _, l := range covered[i] {
				if !claimed[l.ID] {
					claimed[l.ID] = true
					e.Lines = append(e.Lines, l)
				}
			}
			if len(e.Lines) == 0 {
				return nil, invalidPayment("Los items del pago %d ya fueron asignados a un pago anterior", i+1)
			}
			e.Subtotal = model.SumLines(e.Lines)
			if !money.ApproxEqual(money.Total(e.Subtotal), p.Amount) {
				e.Subtotal = money.SubtotalFromTotal(p.Amount)
				e.AmountDerived = true
			}
		} else {
			e.Subtotal = money.SubtotalFromTotal(p.Amount)
			if firstOpen < 0 {
				firstOpen = i
			}
		}
		// The invoice records what was paid; any sub-cent drift of the line
		// math lands in the tax figure.
		e.Tax = p.Amount.Sub(e.Subtotal)
		entries[i] = e
	}

	if firstOpen >= 0 {
		for _, l := range settled {
			if !claimed[l.ID] {
				claimed[l.ID] = true
				entries[firstOpen].Lines = append(entries[firstOpen].Lines, l)
			}
		}
	}

	return &SplitPlan{Entries: entries, Settled: settled}, nil
}

func isSplit(payments []Payment) bool {
	if len(payments) > 1 {
		return true
	}
	return len(payments) == 1 && payments[0].Scope.Explicit()
}

func sumPayments(payments []Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// unionInOrder deduplicates the covered lines keeping pending order.
func unionInOrder(pending []model.OrderLine, covered [][]model.OrderLine) []model.OrderLine {
	in := make(map[uint]bool)
	for _, lines := range covered {
		for _, l := range lines {
			in[l.ID] = true
		}
	}
	out := make([]model.OrderLine, 0, len(in))
	for _, l := range pending {
		if in[l.ID] {
			out = append(out, l)
		}
	}
	return out
}

func paymentMismatch(paid, toSettle decimal.Decimal, items int) *DomainError {
	return &DomainError{
		Code:    CodePaymentMismatch,
		Message: ErrPaymentMismatch.Message,
		Fields: map[string]any{
			"payments_total":   paid.StringFixed(2),
			"amount_to_settle": toSettle.StringFixed(2),
			"items_count":      items,
		},
	}
}
