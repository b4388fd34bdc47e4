package alerting

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

var _ inventory.AlertDispatcher = (*LogDispatcher)(nil)

// LogDispatcher sink de alertas que escribe cada evento en el log estructurado.
type LogDispatcher struct {
	log zerolog.Logger
}

// NewLogDispatcher construye el sink.
func NewLogDispatcher(log zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{log: log.With().Str("component", "alerts").Logger()}
}

func (d *LogDispatcher) Dispatch(_ context.Context, event entity.AlertEvent) error {
	e := d.log.Warn()
	if event.Severity == entity.SeverityOutOfStock || event.Severity == entity.SeverityOverflowEscalation {
		e = d.log.Error()
	}
	e.Str("alert_id", event.ID).
		Str("product_id", event.ProductID).
		Str("variant_id", event.VariantID).
		Str("severity", string(event.Severity)).
		Int64("available", event.AvailableQuantity).
		Int64("rejected", event.RejectedQuantity).
		Time("at", event.Timestamp).
		Msg("alerta de stock")
	return nil
}
