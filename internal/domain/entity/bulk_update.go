package entity

// Tipos de operación para actualizaciones masivas.
const (
	OperationSet       = "SET"
	OperationIncrement = "INCREMENT"
	OperationDecrement = "DECREMENT"
)

// BulkUpdateItem es una mutación de stock dentro de un lote. No se persiste como entidad.
type BulkUpdateItem struct {
	ProductID string
	VariantID string
	Quantity  int64
	Operation string
	Location  *LocationMetadata
	// HighPriority marca el ítem como prioritario para la política de desbordamiento.
	HighPriority bool
}

// LocationMetadata datos opcionales de ubicación (bodega, pasillo).
type LocationMetadata struct {
	WarehouseID string
	Zone        string
}

// Key devuelve la clave del ítem.
func (i BulkUpdateItem) Key() StockKey {
	return StockKey{ProductID: i.ProductID, VariantID: i.VariantID}
}

// IsValidOperation indica si op es SET, INCREMENT o DECREMENT.
func IsValidOperation(op string) bool {
	switch op {
	case OperationSet, OperationIncrement, OperationDecrement:
		return true
	}
	return false
}
