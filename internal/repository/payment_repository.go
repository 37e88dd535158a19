package repository

import (
	"context"
	"errors"
	"fmt"

	"agrigenie/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const paymentColumns = `id, user_id, type, details, is_default, created_at`

type paymentMethodRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentMethodRepository creates a new PostgreSQL-backed payment method repository.
func NewPaymentMethodRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentMethodRepository {
	return &paymentMethodRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment_method").Logger(),
	}
}

func scanPaymentMethod(row rowScanner) (*model.PaymentMethod, error) {
	var m model.PaymentMethod
	if err := row.Scan(&m.ID, &m.UserID, &m.Type, &m.Details, &m.IsDefault, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *paymentMethodRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PaymentMethod, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payment_methods
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query payment methods")
		return nil, fmt.Errorf("failed to query payment methods: %w", err)
	}
	defer rows.Close()

	methods := make([]model.PaymentMethod, 0)
	for rows.Next() {
		m, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment method: %w", err)
		}
		methods = append(methods, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment methods: %w", err)
	}
	return methods, nil
}

func (r *paymentMethodRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentMethod, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_methods WHERE id = $1`

	m, err := scanPaymentMethod(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("payment_method_id", id.String()).Msg("failed to query payment method")
		return nil, fmt.Errorf("failed to query payment method: %w", err)
	}
	return m, nil
}

func (r *paymentMethodRepository) GetDefault(ctx context.Context, userID uuid.UUID) (*model.PaymentMethod, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_methods WHERE user_id = $1 AND is_default`

	m, err := scanPaymentMethod(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query default payment method")
		return nil, fmt.Errorf("failed to query default payment method: %w", err)
	}
	return m, nil
}

func (r *paymentMethodRepository) Create(ctx context.Context, method *model.PaymentMethod) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if method.IsDefault {
			if err := clearDefault(ctx, tx, method.UserID); err != nil {
				return err
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO payment_methods (`+paymentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, method.ID, method.UserID, method.Type, method.Details, method.IsDefault, method.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Str("user_id", method.UserID.String()).Msg("failed to create payment method")
			return fmt.Errorf("failed to create payment method: %w", err)
		}
		return nil
	})
}

func (r *paymentMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM payment_methods WHERE id = $1`, id); err != nil {
		r.logger.Error().Err(err).Str("payment_method_id", id.String()).Msg("failed to delete payment method")
		return fmt.Errorf("failed to delete payment method: %w", err)
	}
	return nil
}

func (r *paymentMethodRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	var found bool
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := clearDefault(ctx, tx, userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`UPDATE payment_methods SET is_default = TRUE WHERE id = $1 AND user_id = $2`,
			id, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to set default payment method: %w", err)
		}
		found = tag.RowsAffected() == 1
		if !found {
			// keep the previous default
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return false, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("payment_method_id", id.String()).Msg("failed to set default payment method")
		return false, err
	}
	return found, nil
}

var errNoChange = errors.New("no change")

// clearDefault unsets the user's default method. It first takes a
// per-user lock so concurrent default changes cannot both win the unique
// default index.
func clearDefault(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended('payment_methods/' || $1, 0))`,
		userID.String(),
	); err != nil {
		return fmt.Errorf("failed to lock payment methods: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE payment_methods SET is_default = FALSE WHERE user_id = $1 AND is_default`,
		userID,
	); err != nil {
		return fmt.Errorf("failed to clear default payment method: %w", err)
	}
	return nil
}

func (r *paymentMethodRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
