package inventory

import "math"

// Resultados posibles de la política de desbordamiento.
const (
	OverflowNoCeiling      = "NO_CEILING"
	OverflowWithinCapacity = "WITHIN_CAPACITY"
	OverflowAbsorbed       = "OVERFLOW_ABSORBED"
	OverflowRedistributed  = "REDISTRIBUTED"
	OverflowRejected       = "REJECTED"
	OverflowPartial        = "PARTIAL"
)

// OverflowInput entrada de la tabla de decisión. Los predicados los provee el caller.
type OverflowInput struct {
	Current            int64
	Requested          int64
	MaxStockLevel      *int64
	IsHighPriority     bool
	HasOverflowStorage bool
	CanRedistribute    bool
	// NotifyThreshold excedente rechazado a partir del cual se escala a gerencia.
	NotifyThreshold int64
}

// OverflowDecision resultado de la política.
// NewTotal es el TotalQuantity que debe persistirse; Rejected lo que no entra (rechazado o redistribuido).
type OverflowDecision struct {
	Outcome  string
	Accepted int64
	Rejected int64
	NewTotal int64
	Escalate bool
}

// DecideOverflow aplica la política de asignación cuando un incremento supera MaxStockLevel.
// Reglas en orden:
//  1. Sin MaxStockLevel no hay techo: se acepta todo.
//  2. Sin capacidad (allowed <= 0): alta prioridad con almacenamiento de desborde absorbe todo;
//     si se puede redistribuir, el total queda en el máximo; si no, se rechaza el excedente.
//  3. Capacidad parcial: se acepta solo lo permitido y se escala si el rechazo supera NotifyThreshold.
//
// Un incremento que desbordaría int64 se rechaza completo; el caller debería validarlo antes.
func DecideOverflow(in OverflowInput) OverflowDecision {
	if in.Requested <= 0 {
		return OverflowDecision{Outcome: OverflowWithinCapacity, NewTotal: in.Current}
	}
	if in.Requested > math.MaxInt64-in.Current {
		return OverflowDecision{Outcome: OverflowRejected, Rejected: in.Requested, NewTotal: in.Current}
	}
	if in.MaxStockLevel == nil {
		return OverflowDecision{
			Outcome:  OverflowNoCeiling,
			Accepted: in.Requested,
			NewTotal: in.Current + in.Requested,
		}
	}

	ceiling := *in.MaxStockLevel
	allowed := ceiling - in.Current
	if allowed >= in.Requested {
		return OverflowDecision{
			Outcome:  OverflowWithinCapacity,
			Accepted: in.Requested,
			NewTotal: in.Current + in.Requested,
		}
	}

	if allowed <= 0 {
		if in.IsHighPriority && in.HasOverflowStorage {
			return OverflowDecision{
				Outcome:  OverflowAbsorbed,
				Accepted: in.Requested,
				NewTotal: in.Current + in.Requested,
			}
		}
		// El total queda en el techo; lo que sobra (incluido un exceso previo) sale de nuestra contabilidad.
		excess := in.Current + in.Requested - ceiling
		if in.CanRedistribute {
			return OverflowDecision{Outcome: OverflowRedistributed, Rejected: excess, NewTotal: ceiling}
		}
		return OverflowDecision{Outcome: OverflowRejected, Rejected: excess, NewTotal: ceiling}
	}

	rejected := in.Requested - allowed
	return OverflowDecision{
		Outcome:  OverflowPartial,
		Accepted: allowed,
		Rejected: rejected,
		NewTotal: ceiling,
		Escalate: rejected > in.NotifyThreshold,
	}
}
