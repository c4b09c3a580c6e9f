package service

import (
	"context"
	"errors"

	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// domainOrPersistence passes business errors through untouched and turns
// anything else into a logged PERSISTENCE_FAILURE.
func domainOrPersistence(err error, op string) error {
	var de *DomainError
	if errors.As(err, &de) && de.Code != CodePersistenceFailure {
		return de
	}
	log.Error().Err(err).Str("op", op).Msg("storage failure, transaction rolled back")
	return persistenceFailure(err)
}

// lockOrder locks an existing order for writing. Every write path takes the
// table row before the order row (AppendLines does the same), so two
// transactions on one table queue up instead of deadlocking.
func lockOrder(ctx context.Context, tx *gorm.DB, orders repository.OrderRepository, tables repository.TableRepository, orderID uint) (*model.Order, error) {
	tableID, err := orders.TableIDOf(ctx, tx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if tableID != nil {
		if _, err := tables.FindForUpdate(ctx, tx, *tableID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	order, err := orders.FindForUpdate(ctx, tx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Deleted while we waited for the table.
		return nil, ErrOrderNotFound
	}
	return order, err
}
