package inventory

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// AlertDispatcher recibe eventos de alerta clasificados. Es best-effort: un error se registra
// en el log pero nunca revierte la mutación de stock que lo originó.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, event entity.AlertEvent) error
}

// OverflowAdvisor provee los predicados de la política de desbordamiento para una clave.
type OverflowAdvisor interface {
	IsHighPriority(key entity.StockKey, item entity.BulkUpdateItem) bool
	HasOverflowStorage(key entity.StockKey) bool
	CanRedistribute(key entity.StockKey) bool
}

// NoOverflowAdvisor no tiene almacenamiento de desborde ni redistribución; la prioridad sale del ítem.
type NoOverflowAdvisor struct{}

func (NoOverflowAdvisor) IsHighPriority(_ entity.StockKey, item entity.BulkUpdateItem) bool {
	return item.HighPriority
}
func (NoOverflowAdvisor) HasOverflowStorage(entity.StockKey) bool { return false }
func (NoOverflowAdvisor) CanRedistribute(entity.StockKey) bool    { return false }

// PostCommitHook se ejecuta después de persistir una mutación (invalidación de caches externas,
// índice de búsqueda, etc.). Recibe una copia del registro; sus errores solo se registran.
type PostCommitHook func(ctx context.Context, record *entity.StockRecord) error

// Tipos de anomalía registrados (clamp a valor seguro, el procesamiento continúa).
const (
	AnomalyReleaseExceedsReserved = "release_exceeds_reserved"
	AnomalyCommitExceedsReserved  = "commit_exceeds_reserved"
	AnomalyDecrementBelowZero     = "decrement_below_zero"
	AnomalyReservedExceedsTotal   = "reserved_exceeds_total"
	AnomalyOverflowRejected       = "overflow_rejected"
)

// MetricsRecorder puerto de métricas del motor.
type MetricsRecorder interface {
	Reservation(result string)
	Release(clamped bool)
	Commit(clamped bool)
	Anomaly(kind string)
	Alert(severity entity.Severity, dispatched bool)
	BulkItem(ok bool)
}

type nopMetrics struct{}

func (nopMetrics) Reservation(string)          {}
func (nopMetrics) Release(bool)                {}
func (nopMetrics) Commit(bool)                 {}
func (nopMetrics) Anomaly(string)              {}
func (nopMetrics) Alert(entity.Severity, bool) {}
func (nopMetrics) BulkItem(bool)               {}
