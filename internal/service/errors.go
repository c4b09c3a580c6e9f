package service

import (
	"errors"
	"fmt"
)

// Stable error codes returned to clients.
const (
	CodeInvalidPayment     = "INVALID_PAYMENT"
	CodeNoPendingItems     = "NO_PENDING_ITEMS"
	CodeOrderNotFound      = "ORDER_NOT_FOUND"
	CodePaymentMismatch    = "PAYMENT_MISMATCH"
	CodeTableMismatch      = "TABLE_MISMATCH"
	CodeLineNotFound       = "LINE_NOT_FOUND"
	CodeInvoiceNotFound    = "INVOICE_NOT_FOUND"
	CodeTableNotFound      = "TABLE_NOT_FOUND"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
)

// DomainError is a business rule violation with a machine-readable code and
// optional diagnostic fields. Persistence failures carry the storage error
// in Cause; it is logged, never serialized.
type DomainError struct {
	Code    string
	Message string
	Fields  map[string]any
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Cause }

// Is matches on Code so callers can use errors.Is(err, ErrNoPendingItems).
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newDomainError(code, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg}
}

// Sentinels for errors.Is.
var (
	ErrInvalidPayment     = newDomainError(CodeInvalidPayment, "Pago inválido")
	ErrNoPendingItems     = newDomainError(CodeNoPendingItems, "El pedido no tiene items pendientes de facturar")
	ErrOrderNotFound      = newDomainError(CodeOrderNotFound, "Pedido no encontrado")
	ErrPaymentMismatch    = newDomainError(CodePaymentMismatch, "La suma de los pagos no coincide con el monto a facturar")
	ErrTableMismatch      = newDomainError(CodeTableMismatch, "La mesa no corresponde al pedido")
	ErrLineNotFound       = newDomainError(CodeLineNotFound, "Item no encontrado en el pedido")
	ErrInvoiceNotFound    = newDomainError(CodeInvoiceNotFound, "Factura no encontrada")
	ErrTableNotFound      = newDomainError(CodeTableNotFound, "Mesa no encontrada o inactiva")
	ErrPersistenceFailure = newDomainError(CodePersistenceFailure, "Error interno del servidor")
)

func invalidPayment(format string, args ...any) *DomainError {
	return &DomainError{Code: CodeInvalidPayment, Message: fmt.Sprintf(format, args...)}
}

func persistenceFailure(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return &DomainError{Code: CodePersistenceFailure, Message: ErrPersistenceFailure.Message, Cause: err}
}
