package repository

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const uniqueViolation = "23505"

var constraintMessages = map[string]string{
	"users_email_key":                     "email is already registered",
	"categories_name_key":                 "category name already exists",
	"events_slug_key":                     "event slug already exists",
	"registrations_event_participant_key": "already registered for this event",
	"registrations_number_key":            "registration number already exists",
}

type txKey struct{}

// conn returns the transaction bound to ctx, or the base handle.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// locked is conn with SELECT ... FOR UPDATE when ctx carries a
// transaction, so read-modify-write sequences on the row serialize.
func locked(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db.WithContext(ctx)
}

type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{
		db: db,
	}
}

// WithinTx runs fn in a transaction carried by the context it receives.
// Nested calls join the outer transaction.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// translate maps driver errors onto the model error kinds.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}

	var modelErr *model.Error
	if errors.As(err, &modelErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrNotFound("%s not found", entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if msg, ok := constraintMessages[pgErr.ConstraintName]; ok {
			return model.ErrConflict("%s", msg)
		}
		return model.ErrConflict("%s already exists", entity)
	}

	return model.ErrInternal(err, "%s query failed", entity)
}
