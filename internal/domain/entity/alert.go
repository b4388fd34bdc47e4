package entity

import "time"

// Severity clasificación del nivel de stock.
type Severity string

const (
	SeverityNormal      Severity = "NORMAL"
	SeverityOverstocked Severity = "OVERSTOCKED" // informativo, no genera alerta
	SeverityLow         Severity = "LOW"
	SeverityCritical    Severity = "CRITICAL"
	SeverityOutOfStock  Severity = "OUT_OF_STOCK"
	// SeverityOverflowEscalation escalamiento a gerencia por excedente rechazado.
	SeverityOverflowEscalation Severity = "OVERFLOW_ESCALATION"
)

// IsAlert indica si la severidad debe despacharse como alerta.
func (s Severity) IsAlert() bool {
	switch s {
	case SeverityLow, SeverityCritical, SeverityOutOfStock, SeverityOverflowEscalation:
		return true
	}
	return false
}

// AlertEvent evento producido por el motor y consumido por el despachador externo.
type AlertEvent struct {
	ID                string
	ProductID         string
	VariantID         string
	Severity          Severity
	AvailableQuantity int64
	// RejectedQuantity solo aplica a SeverityOverflowEscalation.
	RejectedQuantity int64
	Timestamp        time.Time
}

// Key devuelve la clave del evento.
func (e AlertEvent) Key() StockKey {
	return StockKey{ProductID: e.ProductID, VariantID: e.VariantID}
}
