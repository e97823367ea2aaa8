package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wonny/dlmm-orders/internal/contracts"
)

// PostgresRepository stores one row per order; seq keeps insertion order
// ⭐ SSOT: 주문 테이블 스키마는 여기서만
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository over pool
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the orders table if needed
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS dlmm_orders (
			seq           BIGSERIAL UNIQUE,
			id            TEXT PRIMARY KEY,
			pair          TEXT NOT NULL,
			order_type    TEXT NOT NULL,
			side          TEXT NOT NULL,
			price         NUMERIC NOT NULL,
			trigger_price NUMERIC,
			amount        NUMERIC NOT NULL,
			status        TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			bin_index     INTEGER,
			pair_address  TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS dlmm_orders_status_idx ON dlmm_orders (order_type, status);
	`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate orders table: %w", err)
	}
	return nil
}

const selectOrderColumns = `
	SELECT id, pair, order_type, side, price::text, trigger_price::text, amount::text,
	       status, created_at, bin_index, pair_address
	FROM dlmm_orders
`

// List returns matching orders in insertion order
func (r *PostgresRepository) List(ctx context.Context, filter contracts.OrderFilter) ([]contracts.Order, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("order_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Pair != "" {
		args = append(args, filter.Pair)
		conditions = append(conditions, fmt.Sprintf("pair = $%d", len(args)))
	}

	query := selectOrderColumns
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]contracts.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

// Get returns one order
func (r *PostgresRepository) Get(ctx context.Context, id string) (contracts.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, selectOrderColumns+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.Order{}, fmt.Errorf("%w: %s", contracts.ErrOrderNotFound, id)
	}
	return order, err
}

// Save inserts an order; an existing id is left untouched
func (r *PostgresRepository) Save(ctx context.Context, order contracts.Order) error {
	query := `
		INSERT INTO dlmm_orders (
			id, pair, order_type, side, price, trigger_price, amount,
			status, created_at, bin_index, pair_address
		) VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	var trigger *string
	if order.TriggerPrice != nil {
		s := order.TriggerPrice.String()
		trigger = &s
	}

	_, err := r.pool.Exec(ctx, query,
		order.ID, order.Pair, order.Type, order.Side,
		order.Price.String(), trigger, order.Amount.String(),
		order.Status, order.CreatedAt, order.BinIndex, order.PairAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// Update patches status with a compare-and-set on the previous status
func (r *PostgresRepository) Update(ctx context.Context, id string, patch contracts.OrderPatch) error {
	order, err := r.Get(ctx, id)
	if errors.Is(err, contracts.ErrOrderNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	before := order.Status
	if err := patch.Apply(&order); err != nil {
		return err
	}
	if order.Status == before {
		return nil
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE dlmm_orders SET status = $2 WHERE id = $1 AND status = $3`,
		id, order.Status, before,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// 동시 변경됨
		return fmt.Errorf("%w: %s changed concurrently", contracts.ErrInvalidTransition, id)
	}
	return nil
}

// Remove deletes an order
func (r *PostgresRepository) Remove(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM dlmm_orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to remove order: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (contracts.Order, error) {
	var (
		order         contracts.Order
		price, amount string
		trigger       *string
		binIndex      *int32
	)

	err := row.Scan(
		&order.ID, &order.Pair, &order.Type, &order.Side, &price, &trigger, &amount,
		&order.Status, &order.CreatedAt, &binIndex, &order.PairAddress,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order, err
		}
		return order, fmt.Errorf("failed to scan order: %w", err)
	}

	if order.Price, err = decimal.NewFromString(price); err != nil {
		return order, fmt.Errorf("bad price for %s: %w", order.ID, err)
	}
	if order.Amount, err = decimal.NewFromString(amount); err != nil {
		return order, fmt.Errorf("bad amount for %s: %w", order.ID, err)
	}
	if trigger != nil {
		tp, err := decimal.NewFromString(*trigger)
		if err != nil {
			return order, fmt.Errorf("bad trigger price for %s: %w", order.ID, err)
		}
		order.TriggerPrice = &tp
	}
	if binIndex != nil {
		bin := int(*binIndex)
		order.BinIndex = &bin
	}
	order.CreatedAt = order.CreatedAt.UTC()

	return order, nil
}
