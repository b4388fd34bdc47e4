package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// MonitorConfig parámetros del monitor de stock bajo.
type MonitorConfig struct {
	// DefaultReorderPoint se usa cuando el registro no tiene ReorderPoint propio.
	DefaultReorderPoint int64
	// Cooldown tiempo mínimo entre alertas despachadas para la misma clave.
	Cooldown time.Duration
}

// Evaluation resultado de evaluar un registro.
type Evaluation struct {
	Severity   entity.Severity
	Dispatched bool
	Suppressed bool
}

// LowStockMonitor clasifica registros y despacha alertas respetando el cool-down.
// La severidad se recalcula en cada llamada; el cool-down solo suprime el despacho.
type LowStockMonitor struct {
	repo       repository.StockRecordRepository
	dispatcher AlertDispatcher
	cfg        MonitorConfig
	metrics    MetricsRecorder
	log        zerolog.Logger
	now        func() time.Time
}

// NewLowStockMonitor construye el monitor.
func NewLowStockMonitor(
	repo repository.StockRecordRepository,
	dispatcher AlertDispatcher,
	cfg MonitorConfig,
	log zerolog.Logger,
) *LowStockMonitor {
	return &LowStockMonitor{
		repo:       repo,
		dispatcher: dispatcher,
		cfg:        cfg,
		metrics:    nopMetrics{},
		log:        log.With().Str("component", "low_stock_monitor").Logger(),
		now:        time.Now,
	}
}

// UseMetrics reemplaza el recolector de métricas.
func (m *LowStockMonitor) UseMetrics(rec MetricsRecorder) {
	if rec != nil {
		m.metrics = rec
	}
}

// UseClock reemplaza el reloj (tests).
func (m *LowStockMonitor) UseClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

func (m *LowStockMonitor) reorderPoint(record *entity.StockRecord) int64 {
	if record.ReorderPoint != nil {
		return *record.ReorderPoint
	}
	return m.cfg.DefaultReorderPoint
}

// Classify solo clasifica, sin despachar.
func (m *LowStockMonitor) Classify(record *entity.StockRecord, available int64) entity.Severity {
	return domaininv.Classify(available, m.reorderPoint(record), record.MaxStockLevel)
}

// Evaluate clasifica el registro y, si corresponde y no está en cool-down, despacha la alerta
// y persiste LastAlertSent. El caller debe tener tomado el bloqueo de la clave.
func (m *LowStockMonitor) Evaluate(ctx context.Context, record *entity.StockRecord, available int64) Evaluation {
	if m == nil {
		return Evaluation{}
	}
	sev := m.Classify(record, available)
	ev := Evaluation{Severity: sev}
	if !sev.IsAlert() {
		return ev
	}

	now := m.now()
	if record.LastAlertSent != nil && now.Sub(*record.LastAlertSent) < m.cfg.Cooldown {
		ev.Suppressed = true
		m.metrics.Alert(sev, false)
		m.log.Debug().
			Str("product_id", record.ProductID).
			Str("variant_id", record.VariantID).
			Str("severity", string(sev)).
			Time("last_alert_sent", *record.LastAlertSent).
			Msg("alerta suprimida por cool-down")
		return ev
	}

	event := entity.AlertEvent{
		ID:                uuid.New().String(),
		ProductID:         record.ProductID,
		VariantID:         record.VariantID,
		Severity:          sev,
		AvailableQuantity: available,
		Timestamp:         now,
	}
	if !m.dispatch(ctx, event) {
		return ev
	}
	ev.Dispatched = true

	record.LastAlertSent = &now
	if err := m.repo.Save(ctx, record); err != nil {
		// La alerta ya salió; a lo sumo se repite antes de que venza el cool-down.
		m.log.Error().Err(err).
			Str("product_id", record.ProductID).
			Str("variant_id", record.VariantID).
			Msg("no se pudo persistir last_alert_sent")
	}
	return ev
}

// Escalate despacha una señal de escalamiento por excedente rechazado. No aplica cool-down.
func (m *LowStockMonitor) Escalate(ctx context.Context, record *entity.StockRecord, rejected int64) bool {
	if m == nil {
		return false
	}
	return m.dispatch(ctx, entity.AlertEvent{
		ID:                uuid.New().String(),
		ProductID:         record.ProductID,
		VariantID:         record.VariantID,
		Severity:          entity.SeverityOverflowEscalation,
		AvailableQuantity: record.Available(),
		RejectedQuantity:  rejected,
		Timestamp:         m.now(),
	})
}

func (m *LowStockMonitor) dispatch(ctx context.Context, event entity.AlertEvent) bool {
	if m.dispatcher == nil {
		return false
	}
	if err := m.dispatcher.Dispatch(ctx, event); err != nil {
		m.metrics.Alert(event.Severity, false)
		m.log.Error().Err(err).
			Str("product_id", event.ProductID).
			Str("variant_id", event.VariantID).
			Str("severity", string(event.Severity)).
			Msg("fallo al despachar alerta")
		return false
	}
	m.metrics.Alert(event.Severity, true)
	return true
}
