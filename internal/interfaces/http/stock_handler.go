package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-engine/internal/application/dto"
	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// StockHandler expone el motor de reservas sobre HTTP.
type StockHandler struct {
	reservation *inventory.ReservationUseCase
	bulk        *inventory.BulkUpdateUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(reservation *inventory.ReservationUseCase, bulk *inventory.BulkUpdateUseCase) *StockHandler {
	return &StockHandler{reservation: reservation, bulk: bulk}
}

func keyOf(in dto.StockKeyRequest) entity.StockKey {
	return entity.NewStockKey(in.ProductID, in.VariantID)
}

// Reserve POST /api/stock/reserve
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.reservation.Reserve(c.UserContext(), keyOf(in.StockKeyRequest), in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ReservationResponse{Reserved: res.OK, Reason: res.Reason, Available: res.Available}
	if !res.OK {
		return c.Status(fiber.StatusConflict).JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Release POST /api/stock/release
func (h *StockHandler) Release(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.reservation.Release(c.UserContext(), keyOf(in.StockKeyRequest), in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(releaseResponse(res))
}

// Commit POST /api/stock/commit
func (h *StockHandler) Commit(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	res, err := h.reservation.Commit(c.UserContext(), keyOf(in.StockKeyRequest), in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(releaseResponse(res))
}

// Availability GET /api/stock/:product_id/availability?variant_id=
func (h *StockHandler) Availability(c *fiber.Ctx) error {
	key := entity.NewStockKey(c.Params("product_id"), c.Query("variant_id"))
	available, err := h.reservation.CheckAvailability(c.UserContext(), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{ProductID: key.ProductID, VariantID: key.VariantID, Available: available})
}

// SetQuantity PUT /api/stock/quantity. Si vienen umbrales se configuran antes de fijar la cantidad.
func (h *StockHandler) SetQuantity(c *fiber.Ctx) error {
	var in dto.SetQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	key := keyOf(in.StockKeyRequest)
	if in.ReorderPoint != nil || in.MaxStockLevel != nil {
		if _, err := h.reservation.Configure(c.UserContext(), key, in.ReorderPoint, in.MaxStockLevel); err != nil {
			return writeError(c, err)
		}
	}
	rec, err := h.reservation.SetQuantity(c.UserContext(), key, in.TotalQuantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockRecordResponse{
		ProductID:        rec.ProductID,
		VariantID:        rec.VariantID,
		TotalQuantity:    rec.TotalQuantity,
		ReservedQuantity: rec.ReservedQuantity,
		ReorderPoint:     rec.ReorderPoint,
		MaxStockLevel:    rec.MaxStockLevel,
	})
}

// Bulk POST /api/stock/bulk. Un lote sobre el umbral de fallos responde 207 con el reporte completo.
func (h *StockHandler) Bulk(c *fiber.Ctx) error {
	var in dto.BulkUpdateRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	items := make([]entity.BulkUpdateItem, 0, len(in.Items))
	for _, it := range in.Items {
		item := entity.BulkUpdateItem{
			ProductID:    it.ProductID,
			VariantID:    it.VariantID,
			Quantity:     it.Quantity,
			Operation:    it.Operation,
			HighPriority: it.HighPriority,
		}
		if it.Location != nil {
			item.Location = &entity.LocationMetadata{WarehouseID: it.Location.WarehouseID, Zone: it.Location.Zone}
		}
		items = append(items, item)
	}

	report, err := h.bulk.Process(c.UserContext(), items)
	if err != nil {
		if errors.Is(err, domain.ErrBatchFailureThreshold) {
			return c.Status(fiber.StatusMultiStatus).JSON(report)
		}
		return writeError(c, err)
	}
	return c.JSON(report)
}

func releaseResponse(res inventory.ReleaseResult) dto.ReleaseResponse {
	return dto.ReleaseResponse{
		Requested: res.Requested,
		Released:  res.Released,
		Clamped:   res.Clamped,
		Available: res.Available,
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrInvalidThresholds):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_THRESHOLDS", Message: err.Error()})
	case errors.Is(err, domain.ErrLockTimeout):
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "LOCK_TIMEOUT", Message: "clave ocupada, reintente"})
	case errors.Is(err, domain.ErrStorage):
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORAGE", Message: "almacenamiento no disponible, reintente"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
