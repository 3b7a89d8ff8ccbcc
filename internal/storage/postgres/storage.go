package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domainErrors "github.com/celustore/payserver/internal/domain/errors"
	"github.com/celustore/payserver/internal/domain/model"
	"github.com/celustore/payserver/internal/domain/repository"
)

// pgxPool abstracts the connection pool so tests can substitute a mock.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

type orderRepository struct {
	storage *Storage
}

type inventoryRepository struct {
	storage *Storage
}

type traceRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Inventory() repository.InventoryRepository {
	return &inventoryRepository{storage: s}
}

func (s *Storage) Traces() repository.TraceRepository {
	return &traceRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS inventory_units (
            id SERIAL PRIMARY KEY,
            product_id BIGINT NOT NULL,
            product_name TEXT NOT NULL,
            product_type TEXT NOT NULL,
            color TEXT NOT NULL DEFAULT '',
            capacity TEXT NOT NULL DEFAULT '',
            condition TEXT NOT NULL DEFAULT '',
            unit_price NUMERIC(12,2) NOT NULL,
            stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0)
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id SERIAL PRIMARY KEY,
            status TEXT NOT NULL,
            payment_status TEXT NOT NULL,
            payment_method TEXT NOT NULL,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            locality TEXT NOT NULL DEFAULT '',
            state TEXT NOT NULL DEFAULT '',
            country TEXT NOT NULL DEFAULT '',
            subtotal NUMERIC(12,2) NOT NULL,
            shipping NUMERIC(12,2) NOT NULL,
            total NUMERIC(12,2) NOT NULL,
            gateway_blob JSONB,
            original_trace TEXT NOT NULL DEFAULT '',
            voucher_auth_id TEXT NOT NULL DEFAULT '',
            voucher_retrieval_ref TEXT NOT NULL DEFAULT '',
            voucher_transaction_at TIMESTAMPTZ,
            rejection_code TEXT NOT NULL DEFAULT '',
            rejection_message TEXT NOT NULL DEFAULT '',
            attempt_flagged_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS order_items (
            id SERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            product_id BIGINT NOT NULL,
            product_type TEXT NOT NULL,
            quantity INT NOT NULL CHECK (quantity > 0),
            unit_price NUMERIC(12,2) NOT NULL,
            subtotal NUMERIC(12,2) NOT NULL,
            variant_snapshot JSONB NOT NULL DEFAULT '{}'
        )`,
		`CREATE TABLE IF NOT EXISTS trace_counter (
            id SMALLINT PRIMARY KEY CHECK (id = 1),
            value BIGINT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_payment ON orders(payment_method, payment_status, updated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_product ON inventory_units(product_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

const orderColumns = `id, status, payment_status, payment_method,
        first_name, last_name, email, phone, address, locality, state, country,
        subtotal, shipping, total, gateway_blob, original_trace,
        voucher_auth_id, voucher_retrieval_ref, voucher_transaction_at,
        rejection_code, rejection_message, attempt_flagged_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o                             model.Order
		subtotal, shipping, total     string
		voucherAuthID, voucherRetrRef string
		voucherAt                     *time.Time
	)
	err := row.Scan(
		&o.ID, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&o.Customer.FirstName, &o.Customer.LastName, &o.Customer.Email, &o.Customer.Phone,
		&o.Customer.Address, &o.Customer.Locality, &o.Customer.State, &o.Customer.Country,
		&subtotal, &shipping, &total, &o.GatewayBlob, &o.OriginalTrace,
		&voucherAuthID, &voucherRetrRef, &voucherAt,
		&o.RejectionCode, &o.RejectionMessage, &o.AttemptFlaggedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, fmt.Errorf("parse subtotal: %w", err)
	}
	if o.Shipping, err = decimal.NewFromString(shipping); err != nil {
		return nil, fmt.Errorf("parse shipping: %w", err)
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	if voucherAuthID != "" || voucherRetrRef != "" {
		voucher := &model.Voucher{AuthorizationID: voucherAuthID, RetrievalRef: voucherRetrRef}
		if voucherAt != nil {
			voucher.TransactionAt = *voucherAt
		}
		o.Voucher = voucher
	}

	return &o, nil
}

// --- OrderRepository implementation ---

func (r *orderRepository) Create(ctx context.Context, draft repository.OrderDraft) (*model.Order, error) {
	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		subtotal := decimal.Zero
		items := make([]model.OrderItem, 0, len(draft.Items))

		for _, di := range draft.Items {
			const unitQuery = `SELECT id, product_id, product_name, product_type, color, capacity, condition, unit_price, stock
                               FROM inventory_units WHERE id=$1 FOR UPDATE`
			var (
				unit  model.InventoryUnit
				price string
			)
			err := tx.QueryRow(ctx, unitQuery, di.UnitID).Scan(
				&unit.ID, &unit.ProductID, &unit.ProductName, &unit.ProductType,
				&unit.Color, &unit.Capacity, &unit.Condition, &price, &unit.Stock,
			)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return domainErrors.ErrNotFound
				}
				return err
			}
			if unit.UnitPrice, err = decimal.NewFromString(price); err != nil {
				return fmt.Errorf("parse unit price: %w", err)
			}

			if unit.Stock < di.Quantity {
				return domainErrors.OutOfStockError{
					ProductName: unit.ProductName,
					Requested:   di.Quantity,
					Available:   unit.Stock,
				}
			}

			if _, err := tx.Exec(ctx, `UPDATE inventory_units SET stock = stock - $1 WHERE id=$2`, di.Quantity, unit.ID); err != nil {
				return err
			}

			lineSubtotal := unit.UnitPrice.Mul(decimal.NewFromInt32(di.Quantity))
			subtotal = subtotal.Add(lineSubtotal)
			items = append(items, model.OrderItem{
				ProductID:   unit.ProductID,
				ProductType: unit.ProductType,
				Quantity:    di.Quantity,
				UnitPrice:   unit.UnitPrice,
				Subtotal:    lineSubtotal,
				Variant:     unit.Snapshot(),
			})
		}

		total := subtotal.Add(draft.ShippingFee)

		const insertOrder = `INSERT INTO orders (status, payment_status, payment_method,
                first_name, last_name, email, phone, address, locality, state, country,
                subtotal, shipping, total)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
            RETURNING id, created_at, updated_at`
		o := &model.Order{
			Status:        model.OrderStatusPending,
			PaymentStatus: model.PaymentStatusPending,
			PaymentMethod: draft.PaymentMethod,
			Customer:      draft.Customer,
			Subtotal:      subtotal,
			Shipping:      draft.ShippingFee,
			Total:         total,
		}
		err := tx.QueryRow(ctx, insertOrder,
			o.Status, o.PaymentStatus, o.PaymentMethod,
			o.Customer.FirstName, o.Customer.LastName, o.Customer.Email, o.Customer.Phone,
			o.Customer.Address, o.Customer.Locality, o.Customer.State, o.Customer.Country,
			subtotal.StringFixed(2), draft.ShippingFee.StringFixed(2), total.StringFixed(2),
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return err
		}

		const insertItem = `INSERT INTO order_items (order_id, product_id, product_type, quantity, unit_price, subtotal, variant_snapshot)
            VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`
		for i := range items {
			items[i].OrderID = o.ID
			snapshot, err := json.Marshal(items[i].Variant)
			if err != nil {
				return err
			}
			err = tx.QueryRow(ctx, insertItem,
				o.ID, items[i].ProductID, items[i].ProductType, items[i].Quantity,
				items[i].UnitPrice.StringFixed(2), items[i].Subtotal.StringFixed(2), snapshot,
			).Scan(&items[i].ID)
			if err != nil {
				return err
			}
		}

		o.Items = items
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}

	const itemsQuery = `SELECT id, order_id, product_id, product_type, quantity, unit_price, subtotal, variant_snapshot
                        FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item            model.OrderItem
			price, subtotal string
			snapshot        []byte
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductType, &item.Quantity, &price, &subtotal, &snapshot); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse item price: %w", err)
		}
		if item.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
			return nil, fmt.Errorf("parse item subtotal: %w", err)
		}
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &item.Variant); err != nil {
				return nil, fmt.Errorf("decode variant snapshot: %w", err)
			}
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) SaveAttempt(ctx context.Context, orderID int64, blob []byte, originalTrace string) error {
	const query = `UPDATE orders SET gateway_blob=$1, original_trace=$2, updated_at=NOW() WHERE id=$3`
	tag, err := r.storage.pool.Exec(ctx, query, blob, originalTrace, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) SaveResponse(ctx context.Context, orderID int64, blob []byte) error {
	const query = `UPDATE orders SET gateway_blob=$1, updated_at=NOW() WHERE id=$2`
	tag, err := r.storage.pool.Exec(ctx, query, blob, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) ApprovePayment(ctx context.Context, orderID int64, voucher model.Voucher) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var transactionAt *time.Time
		if !voucher.TransactionAt.IsZero() {
			transactionAt = &voucher.TransactionAt
		}
		const query = `UPDATE orders SET payment_status=$1, status=$2,
                voucher_auth_id=$3, voucher_retrieval_ref=$4, voucher_transaction_at=$5,
                updated_at=NOW()
            WHERE id=$6 AND payment_status=$7`
		tag, err := tx.Exec(ctx, query,
			model.PaymentStatusApproved, model.OrderStatusProcessing,
			voucher.AuthorizationID, voucher.RetrievalRef, transactionAt,
			orderID, model.PaymentStatusPending,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrInvalidOrderState
		}
		return nil
	})
}

func (r *orderRepository) RejectPayment(ctx context.Context, orderID int64, status model.PaymentStatus, code, message string) error {
	const query = `UPDATE orders SET payment_status=$1, rejection_code=$2, rejection_message=$3, updated_at=NOW() WHERE id=$4`
	tag, err := r.storage.pool.Exec(ctx, query, status, code, message, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) SetPaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus, detail string) error {
	const query = `UPDATE orders SET payment_status=$1, rejection_message=$2, updated_at=NOW() WHERE id=$3`
	tag, err := r.storage.pool.Exec(ctx, query, status, detail, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *orderRepository) CancelAndRestock(ctx context.Context, orderID int64) error {
	return r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		const markQuery = `UPDATE orders SET status=$1, updated_at=NOW() WHERE id=$2 AND status NOT IN ($3, $4)`
		tag, err := tx.Exec(ctx, markQuery, model.OrderStatusCancelled, orderID, model.OrderStatusShipped, model.OrderStatusDelivered)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domainErrors.ErrInvalidOrderState
		}

		const itemsQuery = `SELECT product_id, quantity, unit_price FROM order_items WHERE order_id=$1`
		rows, err := tx.Query(ctx, itemsQuery, orderID)
		if err != nil {
			return err
		}
		defer rows.Close()

		type restock struct {
			productID int64
			quantity  int32
			unitPrice string
		}
		var restocks []restock
		for rows.Next() {
			var rs restock
			if err := rows.Scan(&rs.productID, &rs.quantity, &rs.unitPrice); err != nil {
				return err
			}
			restocks = append(restocks, rs)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		for _, rs := range restocks {
			// Order lines do not retain the variant id; locate the unit
			// by exact price match, falling back to the product's first
			// variant.
			const byPrice = `UPDATE inventory_units SET stock = stock + $1
                WHERE id = (SELECT id FROM inventory_units WHERE product_id=$2 AND unit_price=$3 ORDER BY id LIMIT 1)`
			tag, err := tx.Exec(ctx, byPrice, rs.quantity, rs.productID, rs.unitPrice)
			if err != nil {
				return err
			}
			if tag.RowsAffected() > 0 {
				continue
			}

			r.storage.logger.Warn("restock price match failed, using first variant",
				slog.Int64("order", orderID),
				slog.Int64("product", rs.productID),
			)
			const byProduct = `UPDATE inventory_units SET stock = stock + $1
                WHERE id = (SELECT id FROM inventory_units WHERE product_id=$2 ORDER BY id LIMIT 1)`
			tag, err = tx.Exec(ctx, byProduct, rs.quantity, rs.productID)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				r.storage.logger.Error("no inventory unit left to restock",
					slog.Int64("order", orderID),
					slog.Int64("product", rs.productID),
				)
			}
		}
		return nil
	})
}

func (r *orderRepository) ListStaleCardAttempts(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
        WHERE payment_method=$1 AND payment_status=$2
          AND gateway_blob IS NOT NULL AND attempt_flagged_at IS NULL AND updated_at < $3
        ORDER BY updated_at LIMIT $4`
	rows, err := r.storage.pool.Query(ctx, query, model.PaymentMethodCard, model.PaymentStatusPending, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *orderRepository) FlagAttempt(ctx context.Context, orderID int64) error {
	const query = `UPDATE orders SET attempt_flagged_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- InventoryRepository implementation ---

func (r *inventoryRepository) GetUnit(ctx context.Context, id int64) (*model.InventoryUnit, error) {
	const query = `SELECT id, product_id, product_name, product_type, color, capacity, condition, unit_price, stock
                   FROM inventory_units WHERE id=$1`
	var (
		unit  model.InventoryUnit
		price string
	)
	err := r.storage.pool.QueryRow(ctx, query, id).Scan(
		&unit.ID, &unit.ProductID, &unit.ProductName, &unit.ProductType,
		&unit.Color, &unit.Capacity, &unit.Condition, &price, &unit.Stock,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if unit.UnitPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse unit price: %w", err)
	}
	return &unit, nil
}

func (r *inventoryRepository) ListByProduct(ctx context.Context, productID int64) ([]model.InventoryUnit, error) {
	const query = `SELECT id, product_id, product_name, product_type, color, capacity, condition, unit_price, stock
                   FROM inventory_units WHERE product_id=$1 ORDER BY id`
	rows, err := r.storage.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.InventoryUnit
	for rows.Next() {
		var (
			unit  model.InventoryUnit
			price string
		)
		if err := rows.Scan(&unit.ID, &unit.ProductID, &unit.ProductName, &unit.ProductType,
			&unit.Color, &unit.Capacity, &unit.Condition, &price, &unit.Stock); err != nil {
			return nil, err
		}
		if unit.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		result = append(result, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- TraceRepository implementation ---

func (r *traceRepository) NextValue(ctx context.Context) (int64, error) {
	const query = `INSERT INTO trace_counter (id, value) VALUES (1, 1)
                   ON CONFLICT (id) DO UPDATE SET value = trace_counter.value + 1
                   RETURNING value`
	var value int64
	if err := r.storage.pool.QueryRow(ctx, query).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
