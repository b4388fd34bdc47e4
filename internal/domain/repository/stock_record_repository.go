package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// StockRecordRepository define el puerto de almacenamiento durable de registros de stock.
// Lectura y escritura atómicas por clave: ningún lector concurrente observa un registro parcial.
type StockRecordRepository interface {
	// Load devuelve domain.ErrNotFound si no existe registro para la clave.
	Load(ctx context.Context, key entity.StockKey) (*entity.StockRecord, error)
	// Save inserta o reemplaza el registro completo. Los fallos envuelven domain.ErrStorage.
	Save(ctx context.Context, record *entity.StockRecord) error
}
