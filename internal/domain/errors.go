package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidInput          = errors.New("entrada inválida")
	ErrInsufficientStock     = errors.New("stock insuficiente")
	ErrStorage               = errors.New("error de almacenamiento")
	ErrLockTimeout           = errors.New("tiempo de espera agotado al bloquear la clave")
	ErrInvalidThresholds     = errors.New("max_stock_level debe ser mayor que reorder_point")
	ErrBatchFailureThreshold = errors.New("lote con proporción de fallos sobre el umbral")
)

// IsRetryable indica si el caller puede reintentar la operación sin riesgo
// (fallos de almacenamiento o timeout esperando el bloqueo de la clave).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage) || errors.Is(err, ErrLockTimeout)
}
