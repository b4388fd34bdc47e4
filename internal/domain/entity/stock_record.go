package entity

import (
	"fmt"
	"time"
)

// StockKey identifica un registro de stock por producto y variante.
type StockKey struct {
	ProductID string
	VariantID string
}

// NewStockKey construye la clave.
func NewStockKey(productID, variantID string) StockKey {
	return StockKey{ProductID: productID, VariantID: variantID}
}

// Valid indica si la clave tiene producto. La variante puede ir vacía (producto sin variantes).
func (k StockKey) Valid() bool {
	return k.ProductID != ""
}

func (k StockKey) String() string {
	return fmt.Sprintf("%s/%s", k.ProductID, k.VariantID)
}

// StockRecord representa el stock de un producto/variante: cantidad física y reservada.
// Invariantes: TotalQuantity >= 0, ReservedQuantity >= 0, ReservedQuantity <= TotalQuantity.
type StockRecord struct {
	ProductID        string
	VariantID        string
	TotalQuantity    int64
	ReservedQuantity int64
	ReorderPoint     *int64 // opcional
	MaxStockLevel    *int64 // opcional; si ambos están definidos, MaxStockLevel > ReorderPoint
	LastUpdated      time.Time
	LastAlertSent    *time.Time
}

// NewStockRecord crea un registro en cero para la clave (caso NotFound al cargar).
func NewStockRecord(key StockKey, now time.Time) *StockRecord {
	return &StockRecord{
		ProductID:   key.ProductID,
		VariantID:   key.VariantID,
		LastUpdated: now,
	}
}

// Key devuelve la clave del registro.
func (r *StockRecord) Key() StockKey {
	return StockKey{ProductID: r.ProductID, VariantID: r.VariantID}
}

// Available devuelve TotalQuantity - ReservedQuantity con piso en cero.
func (r *StockRecord) Available() int64 {
	if a := r.TotalQuantity - r.ReservedQuantity; a > 0 {
		return a
	}
	return 0
}

// Clone devuelve una copia profunda (los punteros opcionales no se comparten).
func (r *StockRecord) Clone() *StockRecord {
	c := *r
	if r.ReorderPoint != nil {
		v := *r.ReorderPoint
		c.ReorderPoint = &v
	}
	if r.MaxStockLevel != nil {
		v := *r.MaxStockLevel
		c.MaxStockLevel = &v
	}
	if r.LastAlertSent != nil {
		v := *r.LastAlertSent
		c.LastAlertSent = &v
	}
	return &c
}

// ValidThresholds verifica que MaxStockLevel > ReorderPoint cuando ambos existen.
func ValidThresholds(reorderPoint, maxStockLevel *int64) bool {
	if reorderPoint != nil && *reorderPoint < 0 {
		return false
	}
	if maxStockLevel != nil && *maxStockLevel < 0 {
		return false
	}
	if reorderPoint != nil && maxStockLevel != nil {
		return *maxStockLevel > *reorderPoint
	}
	return true
}
