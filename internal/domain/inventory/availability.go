package inventory

import "github.com/jhoicas/stock-engine/internal/domain/entity"

// Available calcula la cantidad disponible considerando reservas en vuelo (servicio de dominio puro).
// Disponible = max(0, Total - max(ReservadoDurable, ReservadoEnCache))
//
// Se toma el máximo entre ambas fuentes: una reserva solo en cache reduce la disponibilidad,
// y una reserva ya persistida no se resta dos veces.
func Available(record *entity.StockRecord, cachedReservation int64) int64 {
	if record == nil {
		return 0
	}
	reserved := record.ReservedQuantity
	if cachedReservation > reserved {
		reserved = cachedReservation
	}
	if a := record.TotalQuantity - reserved; a > 0 {
		return a
	}
	return 0
}
