package inventory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	domaininv "github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// Motivos de rechazo de una reserva.
const (
	ReasonInsufficientStock = "INSUFFICIENT_STOCK"
)

// Resultados de reserva para métricas.
const (
	ReservationReserved     = "reserved"
	ReservationInsufficient = "insufficient"
	ReservationError        = "error"
)

// ReservationResult resultado de Reserve. Stock insuficiente es un resultado esperado, no un error.
type ReservationResult struct {
	OK        bool
	Reason    string
	Available int64
}

// ReleaseResult resultado de Release/Commit. Clamped indica que se pidió más de lo reservado.
type ReleaseResult struct {
	Requested int64
	Released  int64
	Clamped   bool
	Available int64
}

// ReservationUseCase coordina reservas y liberaciones de stock por clave.
// Reserve/Release de la misma clave se serializan; claves distintas no se bloquean entre sí.
type ReservationUseCase struct {
	repo    repository.StockRecordRepository
	locks   *LockRegistry
	cache   *ReservationCache
	monitor *LowStockMonitor
	hooks   []PostCommitHook
	metrics MetricsRecorder
	log     zerolog.Logger
	now     func() time.Time
}

// NewReservationUseCase construye el coordinador. locks y cache deben compartirse con
// BulkUpdateUseCase para que ambos serialicen sobre la misma clave.
func NewReservationUseCase(
	repo repository.StockRecordRepository,
	locks *LockRegistry,
	cache *ReservationCache,
	monitor *LowStockMonitor,
	log zerolog.Logger,
) *ReservationUseCase {
	return &ReservationUseCase{
		repo:    repo,
		locks:   locks,
		cache:   cache,
		monitor: monitor,
		metrics: nopMetrics{},
		log:     log.With().Str("component", "reservation").Logger(),
		now:     time.Now,
	}
}

// UseMetrics reemplaza el recolector de métricas.
func (uc *ReservationUseCase) UseMetrics(rec MetricsRecorder) {
	if rec != nil {
		uc.metrics = rec
	}
}

// AddPostCommitHook registra un hook que corre tras cada mutación persistida.
func (uc *ReservationUseCase) AddPostCommitHook(h PostCommitHook) {
	if h != nil {
		uc.hooks = append(uc.hooks, h)
	}
}

// CheckAvailability devuelve la disponibilidad sin tomar el bloqueo de la clave.
// Puede observar una cantidad que un escritor concurrente está por reservar.
func (uc *ReservationUseCase) CheckAvailability(ctx context.Context, key entity.StockKey) (int64, error) {
	if !key.Valid() {
		return 0, domain.ErrInvalidInput
	}
	rec, err := loadOrCreate(ctx, uc.repo, key, uc.now())
	if err != nil {
		return 0, err
	}
	return domaininv.Available(rec, uc.cache.Get(key)), nil
}

// Reserve reserva quantity unidades. Hace un chequeo optimista sin bloqueo y lo repite
// bajo el bloqueo de la clave antes de mutar.
func (uc *ReservationUseCase) Reserve(ctx context.Context, key entity.StockKey, quantity int64) (ReservationResult, error) {
	if !key.Valid() || quantity <= 0 {
		return ReservationResult{}, domain.ErrInvalidInput
	}

	available, err := uc.CheckAvailability(ctx, key)
	if err != nil {
		uc.metrics.Reservation(ReservationError)
		return ReservationResult{}, err
	}
	if available < quantity {
		uc.metrics.Reservation(ReservationInsufficient)
		return ReservationResult{Reason: ReasonInsufficientStock, Available: available}, nil
	}

	var result ReservationResult
	snapshot, err := uc.withKeyLock(ctx, key, func(rec *entity.StockRecord) (bool, error) {
		available := domaininv.Available(rec, uc.cache.Get(key))
		if available < quantity {
			result = ReservationResult{Reason: ReasonInsufficientStock, Available: available}
			return false, nil
		}
		rec.ReservedQuantity += quantity
		rec.LastUpdated = uc.now()
		if err := save(ctx, uc.repo, rec); err != nil {
			return false, err
		}
		uc.cache.Add(key, quantity)
		uc.cache.Cap(key, rec.ReservedQuantity)

		result = ReservationResult{OK: true, Available: domaininv.Available(rec, uc.cache.Get(key))}
		uc.monitor.Evaluate(ctx, rec, result.Available)
		return true, nil
	})
	if err != nil {
		uc.metrics.Reservation(ReservationError)
		return ReservationResult{}, err
	}
	if !result.OK {
		uc.metrics.Reservation(ReservationInsufficient)
		return result, nil
	}

	uc.metrics.Reservation(ReservationReserved)
	uc.runHooks(ctx, snapshot)
	return result, nil
}

// Release libera quantity unidades reservadas. Si se pide más de lo reservado se recorta
// a lo reservado y se registra la anomalía; ReservedQuantity nunca queda negativo.
func (uc *ReservationUseCase) Release(ctx context.Context, key entity.StockKey, quantity int64) (ReleaseResult, error) {
	if !key.Valid() || quantity <= 0 {
		return ReleaseResult{}, domain.ErrInvalidInput
	}

	result := ReleaseResult{Requested: quantity}
	snapshot, err := uc.withKeyLock(ctx, key, func(rec *entity.StockRecord) (bool, error) {
		amount := uc.clampToReserved(rec, quantity, AnomalyReleaseExceedsReserved)
		result.Released = amount
		result.Clamped = amount < quantity
		if amount == 0 {
			result.Available = domaininv.Available(rec, uc.cache.Get(key))
			return false, nil
		}

		rec.ReservedQuantity -= amount
		rec.LastUpdated = uc.now()
		if err := save(ctx, uc.repo, rec); err != nil {
			return false, err
		}
		uc.cache.Add(key, -amount)
		uc.cache.Cap(key, rec.ReservedQuantity)
		result.Available = domaininv.Available(rec, uc.cache.Get(key))
		return true, nil
	})
	if err != nil {
		return ReleaseResult{}, err
	}
	uc.metrics.Release(result.Clamped)
	if snapshot != nil {
		uc.runHooks(ctx, snapshot)
	}
	return result, nil
}

// Commit confirma una reserva (pedido despachado): descuenta la cantidad del total y de lo
// reservado. Igual que Release, se recorta a lo reservado.
func (uc *ReservationUseCase) Commit(ctx context.Context, key entity.StockKey, quantity int64) (ReleaseResult, error) {
	if !key.Valid() || quantity <= 0 {
		return ReleaseResult{}, domain.ErrInvalidInput
	}

	result := ReleaseResult{Requested: quantity}
	snapshot, err := uc.withKeyLock(ctx, key, func(rec *entity.StockRecord) (bool, error) {
		amount := uc.clampToReserved(rec, quantity, AnomalyCommitExceedsReserved)
		result.Released = amount
		result.Clamped = amount < quantity
		if amount == 0 {
			result.Available = domaininv.Available(rec, uc.cache.Get(key))
			return false, nil
		}

		rec.ReservedQuantity -= amount
		rec.TotalQuantity -= amount
		rec.LastUpdated = uc.now()
		if err := save(ctx, uc.repo, rec); err != nil {
			return false, err
		}
		uc.cache.Add(key, -amount)
		uc.cache.Cap(key, rec.ReservedQuantity)
		result.Available = domaininv.Available(rec, uc.cache.Get(key))
		uc.monitor.Evaluate(ctx, rec, result.Available)
		return true, nil
	})
	if err != nil {
		return ReleaseResult{}, err
	}
	uc.metrics.Commit(result.Clamped)
	if snapshot != nil {
		uc.runHooks(ctx, snapshot)
	}
	return result, nil
}

// SetQuantity fija la cantidad física. Si queda por debajo de lo reservado, lo reservado se
// recorta al total y se registra la anomalía.
func (uc *ReservationUseCase) SetQuantity(ctx context.Context, key entity.StockKey, total int64) (*entity.StockRecord, error) {
	if !key.Valid() || total < 0 {
		return nil, domain.ErrInvalidInput
	}
	snapshot, err := uc.withKeyLock(ctx, key, func(rec *entity.StockRecord) (bool, error) {
		rec.TotalQuantity = total
		if cut := clampReserved(rec); cut > 0 {
			uc.anomaly(rec, AnomalyReservedExceedsTotal, total, rec.ReservedQuantity)
		}
		rec.LastUpdated = uc.now()
		if err := save(ctx, uc.repo, rec); err != nil {
			return false, err
		}
		uc.cache.Cap(key, rec.ReservedQuantity)
		uc.monitor.Evaluate(ctx, rec, domaininv.Available(rec, uc.cache.Get(key)))
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	uc.runHooks(ctx, snapshot)
	return snapshot, nil
}

// Configure fija el punto de reorden y el máximo de la clave. Un argumento nil conserva el
// valor actual; MaxStockLevel debe quedar mayor que ReorderPoint cuando ambos están definidos.
func (uc *ReservationUseCase) Configure(ctx context.Context, key entity.StockKey, reorderPoint, maxStockLevel *int64) (*entity.StockRecord, error) {
	if !key.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if !entity.ValidThresholds(reorderPoint, maxStockLevel) {
		return nil, domain.ErrInvalidThresholds
	}
	return uc.withKeyLock(ctx, key, func(rec *entity.StockRecord) (bool, error) {
		if reorderPoint == nil {
			reorderPoint = rec.ReorderPoint
		}
		if maxStockLevel == nil {
			maxStockLevel = rec.MaxStockLevel
		}
		if !entity.ValidThresholds(reorderPoint, maxStockLevel) {
			return false, domain.ErrInvalidThresholds
		}
		rec.ReorderPoint = reorderPoint
		rec.MaxStockLevel = maxStockLevel
		rec.LastUpdated = uc.now()
		return true, save(ctx, uc.repo, rec)
	})
}

// withKeyLock toma el bloqueo de la clave, recarga el registro y ejecuta fn. El bloqueo se
// libera en todos los caminos. Si fn reporta cambios devuelve una copia del registro final.
func (uc *ReservationUseCase) withKeyLock(
	ctx context.Context,
	key entity.StockKey,
	fn func(rec *entity.StockRecord) (bool, error),
) (*entity.StockRecord, error) {
	unlock, err := uc.locks.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	rec, err := loadOrCreate(ctx, uc.repo, key, uc.now())
	if err != nil {
		return nil, err
	}
	changed, err := fn(rec)
	if err != nil || !changed {
		return nil, err
	}
	return rec.Clone(), nil
}

func (uc *ReservationUseCase) clampToReserved(rec *entity.StockRecord, quantity int64, kind string) int64 {
	if quantity <= rec.ReservedQuantity {
		return quantity
	}
	uc.anomaly(rec, kind, quantity, rec.ReservedQuantity)
	return rec.ReservedQuantity
}

func (uc *ReservationUseCase) anomaly(rec *entity.StockRecord, kind string, requested, applied int64) {
	uc.metrics.Anomaly(kind)
	uc.log.Warn().
		Str("anomaly", kind).
		Str("product_id", rec.ProductID).
		Str("variant_id", rec.VariantID).
		Int64("requested", requested).
		Int64("applied", applied).
		Msg("cantidad recortada a un valor seguro")
}

func (uc *ReservationUseCase) runHooks(ctx context.Context, rec *entity.StockRecord) {
	for _, h := range uc.hooks {
		if err := h(ctx, rec.Clone()); err != nil {
			uc.log.Error().Err(err).
				Str("product_id", rec.ProductID).
				Str("variant_id", rec.VariantID).
				Msg("post-commit hook falló")
		}
	}
}
