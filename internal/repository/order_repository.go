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

const orderColumns = `
	id, buyer_id, farmer_id, status, subtotal, shipping_fee, total_price,
	shipping_address, payment_method, created_at, updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.BuyerID,
		&o.FarmerID,
		&o.Status,
		&o.Subtotal,
		&o.ShippingFee,
		&o.TotalPrice,
		&o.ShippingAddress,
		&o.PaymentMethod,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO marketplace_orders (
			id, buyer_id, farmer_id, status, subtotal, shipping_fee, total_price,
			shipping_address, payment_method, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.BuyerID,
		order.FarmerID,
		string(order.Status),
		order.Subtotal,
		order.ShippingFee,
		order.TotalPrice,
		order.ShippingAddress,
		order.PaymentMethod,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("buyer_id", order.BuyerID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO marketplace_order_items (
			id, order_id, listing_id, crop_name, unit, unit_price, quantity, line_total
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.ID,
			item.OrderID,
			item.ListingID,
			item.CropName,
			item.Unit,
			item.UnitPrice,
			item.Quantity,
			item.LineTotal,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range items {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("listing_id", items[i].ListingID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM marketplace_orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{*order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListByBuyer retrieves a buyer's orders, newest first.
func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]model.Order, error) {
	return r.list(ctx, "buyer_id", buyerID)
}

// ListByFarmer retrieves orders placed against a farmer's listings, newest first.
func (r *orderRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]model.Order, error) {
	return r.list(ctx, "farmer_id", farmerID)
}

func (r *orderRepository) list(ctx context.Context, column string, id uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM marketplace_orders
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC, id
	`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str(column, id.String()).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of every order in one query.
func (r *orderRepository) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID.String()
		index[o.ID] = i
		orders[i].Items = make([]model.OrderItem, 0, 1)
	}

	query := `
		SELECT id, order_id, listing_id, crop_name, unit, unit_price, quantity, line_total
		FROM marketplace_order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, crop_name, id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(orders)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ListingID,
			&item.CropName,
			&item.Unit,
			&item.UnitPrice,
			&item.Quantity,
			&item.LineTotal,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}
	return nil
}

// UpdateStatus moves an order from one status to another within tx.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to model.OrderStatus) (bool, error) {
	query := `
		UPDATE marketplace_orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := tx.Exec(ctx, query, id, string(from), string(to))
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(to)).
			Msg("failed to update order status")
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().
			Str("order_id", id.String()).
			Str("expected_status", string(from)).
			Msg("order status changed concurrently")
		return false, nil
	}

	r.logger.Debug().
		Str("order_id", id.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("order status updated")
	return true, nil
}
