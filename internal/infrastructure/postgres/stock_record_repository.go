package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

const schemaStockRecords = `
	CREATE TABLE IF NOT EXISTS stock_records (
		product_id        TEXT        NOT NULL,
		variant_id        TEXT        NOT NULL DEFAULT '',
		total_quantity    BIGINT      NOT NULL DEFAULT 0 CHECK (total_quantity >= 0),
		reserved_quantity BIGINT      NOT NULL DEFAULT 0 CHECK (reserved_quantity >= 0),
		reorder_point     BIGINT      CHECK (reorder_point >= 0),
		max_stock_level   BIGINT,
		last_updated      TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_alert_sent   TIMESTAMPTZ,
		PRIMARY KEY (product_id, variant_id),
		CHECK (reserved_quantity <= total_quantity),
		CHECK (max_stock_level IS NULL OR reorder_point IS NULL OR max_stock_level > reorder_point)
	)`

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL (usable con pool o tx).
// Cada Save es un único upsert de fila completa, atómico por clave.
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

// EnsureSchema crea la tabla si no existe.
func (r *StockRecordRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, schemaStockRecords); err != nil {
		return fmt.Errorf("crear tabla stock_records: %w", err)
	}
	return nil
}

// Load obtiene el registro de stock de un producto/variante.
func (r *StockRecordRepo) Load(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error) {
	query := `
		SELECT product_id, variant_id, total_quantity, reserved_quantity,
		       reorder_point, max_stock_level, last_updated, last_alert_sent
		FROM stock_records WHERE product_id = $1 AND variant_id = $2`
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, key.ProductID, key.VariantID).Scan(
		&s.ProductID, &s.VariantID, &s.TotalQuantity, &s.ReservedQuantity,
		&s.ReorderPoint, &s.MaxStockLevel, &s.LastUpdated, &s.LastAlertSent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get stock record: %w: %v", domain.ErrStorage, err)
	}
	return &s, nil
}

// Save inserta o reemplaza el registro completo.
func (r *StockRecordRepo) Save(ctx context.Context, record *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (product_id, variant_id, total_quantity, reserved_quantity,
		                           reorder_point, max_stock_level, last_updated, last_alert_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (product_id, variant_id)
		DO UPDATE SET total_quantity    = EXCLUDED.total_quantity,
		              reserved_quantity = EXCLUDED.reserved_quantity,
		              reorder_point     = EXCLUDED.reorder_point,
		              max_stock_level   = EXCLUDED.max_stock_level,
		              last_updated      = EXCLUDED.last_updated,
		              last_alert_sent   = EXCLUDED.last_alert_sent`
	_, err := r.q.Exec(ctx, query,
		record.ProductID, record.VariantID, record.TotalQuantity, record.ReservedQuantity,
		record.ReorderPoint, record.MaxStockLevel, record.LastUpdated, record.LastAlertSent,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("upsert stock record: %w: %v", domain.ErrInvalidInput, err)
		}
		return fmt.Errorf("upsert stock record: %w: %v", domain.ErrStorage, err)
	}
	return nil
}

// isCheckViolation verifica si un error es una violación de constraint CHECK (23514).
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514" // check_violation
	}
	return false
}
