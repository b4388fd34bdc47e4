package inventory

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/application/dto"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// BulkConfig parámetros del procesador masivo.
type BulkConfig struct {
	// FailureAbortRatio proporción de fallos (fallos/total) sobre la cual el lote se marca fallido.
	FailureAbortRatio decimal.Decimal
	// OverflowNotifyThreshold excedente rechazado sobre el cual se escala a gerencia.
	OverflowNotifyThreshold int64
}

// BulkUpdateUseCase aplica lotes de mutaciones SET/INCREMENT/DECREMENT.
// Cada ítem es independiente: un fallo no detiene el lote y no hay rollback de los exitosos.
type BulkUpdateUseCase struct {
	repo    repository.StockRecordRepository
	locks   *LockRegistry
	cache   *ReservationCache
	monitor *LowStockMonitor
	advisor OverflowAdvisor
	cfg     BulkConfig
	metrics MetricsRecorder
	log     zerolog.Logger
	now     func() time.Time
}

// NewBulkUpdateUseCase construye el caso de uso. advisor nil equivale a NoOverflowAdvisor.
func NewBulkUpdateUseCase(
	repo repository.StockRecordRepository,
	locks *LockRegistry,
	cache *ReservationCache,
	monitor *LowStockMonitor,
	advisor OverflowAdvisor,
	cfg BulkConfig,
	log zerolog.Logger,
) *BulkUpdateUseCase {
	if advisor == nil {
		advisor = NoOverflowAdvisor{}
	}
	return &BulkUpdateUseCase{
		repo:    repo,
		locks:   locks,
		cache:   cache,
		monitor: monitor,
		advisor: advisor,
		cfg:     cfg,
		metrics: nopMetrics{},
		log:     log.With().Str("component", "bulk_update").Logger(),
		now:     time.Now,
	}
}

// UseMetrics reemplaza el recolector de métricas.
func (uc *BulkUpdateUseCase) UseMetrics(rec MetricsRecorder) {
	if rec != nil {
		uc.metrics = rec
	}
}

// Process aplica los ítems en orden y devuelve el reporte. Si la proporción de fallos supera
// FailureAbortRatio, el reporte sale con Aborted=true junto con domain.ErrBatchFailureThreshold;
// las mutaciones ya aplicadas no se revierten.
func (uc *BulkUpdateUseCase) Process(ctx context.Context, items []entity.BulkUpdateItem) (dto.BulkUpdateReport, error) {
	report := dto.BulkUpdateReport{
		BatchID:  uuid.New().String(),
		Failures: []dto.BulkFailure{},
	}
	if len(items) == 0 {
		return report, nil
	}

	for i, item := range items {
		escalated, err := uc.apply(ctx, item)
		if escalated {
			report.Escalations++
		}
		if err != nil {
			uc.metrics.BulkItem(false)
			report.FailureCount++
			report.Failures = append(report.Failures, dto.BulkFailure{
				Index:     i,
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Reason:    err.Error(),
			})
			uc.log.Warn().Err(err).
				Str("batch_id", report.BatchID).
				Int("index", i).
				Str("product_id", item.ProductID).
				Str("variant_id", item.VariantID).
				Msg("ítem del lote falló")
			continue
		}
		uc.metrics.BulkItem(true)
		report.SuccessCount++
	}

	ratio := decimal.NewFromInt(int64(report.FailureCount)).Div(decimal.NewFromInt(int64(len(items))))
	if ratio.GreaterThan(uc.cfg.FailureAbortRatio) {
		report.Aborted = true
		uc.log.Error().
			Str("batch_id", report.BatchID).
			Int("success", report.SuccessCount).
			Int("failures", report.FailureCount).
			Str("ratio", ratio.StringFixed(4)).
			Msg("lote sobre el umbral de fallos")
		return report, domain.ErrBatchFailureThreshold
	}

	uc.log.Info().
		Str("batch_id", report.BatchID).
		Int("success", report.SuccessCount).
		Int("failures", report.FailureCount).
		Msg("lote procesado")
	return report, nil
}

func validateItem(item entity.BulkUpdateItem) error {
	if !item.Key().Valid() {
		return fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	if item.Quantity < 0 {
		return fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}
	if !entity.IsValidOperation(item.Operation) {
		return fmt.Errorf("%w: operación %q desconocida", domain.ErrInvalidInput, item.Operation)
	}
	return nil
}

// apply procesa un ítem bajo el bloqueo de su clave. Devuelve si el rechazo amerita escalar a gerencia.
func (uc *BulkUpdateUseCase) apply(ctx context.Context, item entity.BulkUpdateItem) (bool, error) {
	if err := validateItem(item); err != nil {
		return false, err
	}
	key := item.Key()

	unlock, err := uc.locks.Acquire(ctx, key)
	if err != nil {
		return false, err
	}
	defer unlock()

	now := uc.now()
	rec, err := loadOrCreate(ctx, uc.repo, key, now)
	if err != nil {
		return false, err
	}

	var escalate bool
	var rejected int64
	switch item.Operation {
	case entity.OperationSet:
		rec.TotalQuantity = item.Quantity
	case entity.OperationIncrement:
		if item.Quantity > math.MaxInt64-rec.TotalQuantity {
			return false, fmt.Errorf("%w: el incremento desborda la cantidad total", domain.ErrInvalidInput)
		}
		decision := domaininv.DecideOverflow(domaininv.OverflowInput{
			Current:            rec.TotalQuantity,
			Requested:          item.Quantity,
			MaxStockLevel:      rec.MaxStockLevel,
			IsHighPriority:     uc.advisor.IsHighPriority(key, item),
			HasOverflowStorage: uc.advisor.HasOverflowStorage(key),
			CanRedistribute:    uc.advisor.CanRedistribute(key),
			NotifyThreshold:    uc.cfg.OverflowNotifyThreshold,
		})
		rec.TotalQuantity = decision.NewTotal
		escalate, rejected = decision.Escalate, decision.Rejected
		if decision.Rejected > 0 {
			uc.metrics.Anomaly(AnomalyOverflowRejected)
			uc.log.Warn().
				Str("product_id", key.ProductID).
				Str("variant_id", key.VariantID).
				Str("outcome", decision.Outcome).
				Int64("requested", item.Quantity).
				Int64("accepted", decision.Accepted).
				Int64("rejected", decision.Rejected).
				Msg("incremento supera max_stock_level")
		}
	case entity.OperationDecrement:
		if item.Quantity > rec.TotalQuantity {
			uc.anomaly(key, AnomalyDecrementBelowZero, item.Quantity, rec.TotalQuantity)
			rec.TotalQuantity = 0
		} else {
			rec.TotalQuantity -= item.Quantity
		}
	}
	if cut := clampReserved(rec); cut > 0 {
		uc.anomaly(key, AnomalyReservedExceedsTotal, rec.ReservedQuantity+cut, rec.ReservedQuantity)
	}
	rec.LastUpdated = now

	if err := save(ctx, uc.repo, rec); err != nil {
		return false, err
	}
	uc.cache.Cap(key, rec.ReservedQuantity)

	if escalate {
		uc.monitor.Escalate(ctx, rec, rejected)
	}
	uc.monitor.Evaluate(ctx, rec, domaininv.Available(rec, uc.cache.Get(key)))
	return escalate, nil
}

func (uc *BulkUpdateUseCase) anomaly(key entity.StockKey, kind string, requested, applied int64) {
	uc.metrics.Anomaly(kind)
	uc.log.Warn().
		Str("anomaly", kind).
		Str("product_id", key.ProductID).
		Str("variant_id", key.VariantID).
		Int64("requested", requested).
		Int64("applied", applied).
		Msg("cantidad recortada a un valor seguro")
}
