package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// overstockRatio fracción de MaxStockLevel a partir de la cual el stock se informa como sobrestock.
var overstockRatio = decimal.NewFromFloat(0.9)

// Classify clasifica la disponibilidad frente al punto de reorden y el máximo.
// OUT_OF_STOCK si available <= 0; CRITICAL si available <= reorderPoint/2 (división entera);
// LOW si available < reorderPoint; OVERSTOCKED (informativo) si available >= 0.9*max; si no NORMAL.
func Classify(available, reorderPoint int64, maxStockLevel *int64) entity.Severity {
	switch {
	case available <= 0:
		return entity.SeverityOutOfStock
	case available <= reorderPoint/2:
		return entity.SeverityCritical
	case available < reorderPoint:
		return entity.SeverityLow
	}
	if maxStockLevel != nil && *maxStockLevel > 0 {
		limit := decimal.NewFromInt(*maxStockLevel).Mul(overstockRatio)
		if decimal.NewFromInt(available).GreaterThanOrEqual(limit) {
			return entity.SeverityOverstocked
		}
	}
	return entity.SeverityNormal
}
