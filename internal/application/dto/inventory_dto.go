package dto

// StockKeyRequest identifica producto y variante en el body.
type StockKeyRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
}

// ReserveRequest body para POST /api/stock/reserve, /release y /commit.
type ReserveRequest struct {
	StockKeyRequest
	Quantity int64 `json:"quantity"`
}

// SetQuantityRequest body para PUT /api/stock/quantity.
type SetQuantityRequest struct {
	StockKeyRequest
	TotalQuantity int64  `json:"total_quantity"`
	ReorderPoint  *int64 `json:"reorder_point,omitempty"`
	MaxStockLevel *int64 `json:"max_stock_level,omitempty"`
}

// LocationRequest metadatos opcionales de ubicación de un ítem masivo.
type LocationRequest struct {
	WarehouseID string `json:"warehouse_id"`
	Zone        string `json:"zone,omitempty"`
}

// BulkUpdateItemRequest un ítem del lote.
type BulkUpdateItemRequest struct {
	StockKeyRequest
	Quantity     int64            `json:"quantity"`
	Operation    string           `json:"operation"` // SET | INCREMENT | DECREMENT
	Location     *LocationRequest `json:"location,omitempty"`
	HighPriority bool             `json:"high_priority,omitempty"`
}

// BulkUpdateRequest body para POST /api/stock/bulk.
type BulkUpdateRequest struct {
	Items []BulkUpdateItemRequest `json:"items"`
}

// BulkFailure un ítem fallido con su causa; suficiente para reintentar solo los fallidos.
type BulkFailure struct {
	Index     int    `json:"index"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Reason    string `json:"reason"`
}

// BulkUpdateReport respuesta de una actualización masiva.
// Aborted indica que la proporción de fallos superó el umbral; las mutaciones exitosas se mantienen.
type BulkUpdateReport struct {
	BatchID      string        `json:"batch_id"`
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
	Failures     []BulkFailure `json:"failures"`
	Aborted      bool          `json:"aborted"`
	Escalations  int           `json:"escalations"`
}

// ReservationResponse respuesta de reserva.
type ReservationResponse struct {
	Reserved  bool   `json:"reserved"`
	Reason    string `json:"reason,omitempty"`
	Available int64  `json:"available"`
}

// ReleaseResponse respuesta de liberación o confirmación.
type ReleaseResponse struct {
	Requested int64 `json:"requested"`
	Released  int64 `json:"released"`
	Clamped   bool  `json:"clamped"`
	Available int64 `json:"available"`
}

// StockRecordResponse vista de un registro de stock.
type StockRecordResponse struct {
	ProductID        string `json:"product_id"`
	VariantID        string `json:"variant_id"`
	TotalQuantity    int64  `json:"total_quantity"`
	ReservedQuantity int64  `json:"reserved_quantity"`
	ReorderPoint     *int64 `json:"reorder_point,omitempty"`
	MaxStockLevel    *int64 `json:"max_stock_level,omitempty"`
}

// AvailabilityResponse respuesta de disponibilidad.
type AvailabilityResponse struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Available int64  `json:"available"`
}
