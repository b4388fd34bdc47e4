package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// loadOrCreate carga el registro; NotFound se trata como un registro en cero.
func loadOrCreate(ctx context.Context, repo repository.StockRecordRepository, key entity.StockKey, now time.Time) (*entity.StockRecord, error) {
	rec, err := repo.Load(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return entity.NewStockRecord(key, now), nil
		}
		return nil, asStorageError("cargar registro", err)
	}
	return rec, nil
}

func save(ctx context.Context, repo repository.StockRecordRepository, rec *entity.StockRecord) error {
	if err := repo.Save(ctx, rec); err != nil {
		return asStorageError("guardar registro", err)
	}
	return nil
}

func asStorageError(op string, err error) error {
	if errors.Is(err, domain.ErrStorage) || errors.Is(err, domain.ErrInvalidInput) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorage, err)
}

// clampReserved restablece ReservedQuantity <= TotalQuantity. Devuelve lo recortado.
func clampReserved(rec *entity.StockRecord) int64 {
	if rec.ReservedQuantity <= rec.TotalQuantity {
		return 0
	}
	cut := rec.ReservedQuantity - rec.TotalQuantity
	rec.ReservedQuantity = rec.TotalQuantity
	return cut
}
