package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-engine/internal/application/dto"
	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/infrastructure/memory"
	"github.com/jhoicas/stock-engine/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/stock-engine/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildTestApp arma el motor completo sobre el repositorio en memoria.
func buildTestApp(t *testing.T, seed ...*entity.StockRecord) *fiber.App {
	t.Helper()
	repo := memory.NewStockRecordRepository()
	repo.Seed(seed...)
	log := zerolog.Nop()
	locks := inventory.NewLockRegistry(time.Second)
	cache := inventory.NewReservationCache()
	monitor := inventory.NewLowStockMonitor(repo, nil, inventory.MonitorConfig{DefaultReorderPoint: 5, Cooldown: time.Hour}, log)
	reservation := inventory.NewReservationUseCase(repo, locks, cache, monitor, log)
	bulk := inventory.NewBulkUpdateUseCase(repo, locks, cache, monitor, nil, inventory.BulkConfig{
		FailureAbortRatio:       decimal.RequireFromString("0.1"),
		OverflowNotifyThreshold: 20,
	}, log)

	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheus(reg)
	reservation.UseMetrics(rec)
	bulk.UseMetrics(rec)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ServiceName: "stock-engine-test",
		Reservation: reservation,
		Bulk:        bulk,
		Gatherer:    reg,
	})
	return app
}

func record(product string, total, reserved int64) *entity.StockRecord {
	rec := entity.NewStockRecord(entity.NewStockKey(product, ""), time.Now())
	rec.TotalQuantity = total
	rec.ReservedQuantity = reserved
	return rec
}

// doJSON lanza una petición con body JSON y devuelve la respuesta.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// ──────────────────────────────────────────────────────────────────────────────
// Reservas
// ──────────────────────────────────────────────────────────────────────────────

func TestReserve_CreadaYDisponibilidadActualizada(t *testing.T) {
	app := buildTestApp(t, record("P1", 10, 0))

	resp := doJSON(t, app, http.MethodPost, "/api/stock/reserve", dto.ReserveRequest{
		StockKeyRequest: dto.StockKeyRequest{ProductID: "P1"},
		Quantity:        4,
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var out dto.ReservationResponse
	decode(t, resp, &out)
	assert.True(t, out.Reserved)
	assert.Equal(t, int64(6), out.Available)

	resp = doJSON(t, app, http.MethodGet, "/api/stock/P1/availability", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var av dto.AvailabilityResponse
	decode(t, resp, &av)
	assert.Equal(t, int64(6), av.Available)
}

func TestReserve_StockInsuficienteResponde409(t *testing.T) {
	app := buildTestApp(t, record("P1", 3, 0))

	resp := doJSON(t, app, http.MethodPost, "/api/stock/reserve", dto.ReserveRequest{
		StockKeyRequest: dto.StockKeyRequest{ProductID: "P1"},
		Quantity:        5,
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	var out dto.ReservationResponse
	decode(t, resp, &out)
	assert.False(t, out.Reserved)
	assert.Equal(t, inventory.ReasonInsufficientStock, out.Reason)
	assert.Equal(t, int64(3), out.Available)
}

func TestReserve_CantidadInvalidaResponde400(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/reserve", dto.ReserveRequest{
		StockKeyRequest: dto.StockKeyRequest{ProductID: "P1"},
		Quantity:        0,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, "VALIDATION", out.Code)
}

func TestReserve_BodyInvalidoResponde400(t *testing.T) {
	app := buildTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/stock/reserve", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRelease_RecortaALoReservado(t *testing.T) {
	app := buildTestApp(t, record("P1", 10, 2))

	resp := doJSON(t, app, http.MethodPost, "/api/stock/release", dto.ReserveRequest{
		StockKeyRequest: dto.StockKeyRequest{ProductID: "P1"},
		Quantity:        5,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out dto.ReleaseResponse
	decode(t, resp, &out)
	assert.True(t, out.Clamped)
	assert.Equal(t, int64(2), out.Released)
	assert.Equal(t, int64(10), out.Available)
}

func TestCommit_DescuentaTotalYReservado(t *testing.T) {
	app := buildTestApp(t, record("P1", 10, 4))

	resp := doJSON(t, app, http.MethodPost, "/api/stock/commit", dto.ReserveRequest{
		StockKeyRequest: dto.StockKeyRequest{ProductID: "P1"},
		Quantity:        4,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out dto.ReleaseResponse
	decode(t, resp, &out)
	assert.Equal(t, int64(4), out.Released)
	assert.Equal(t, int64(6), out.Available)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cantidad y umbrales
// ──────────────────────────────────────────────────────────────────────────────

func TestSetQuantity_ConUmbrales(t *testing.T) {
	app := buildTestApp(t)
	rp, maxLevel := int64(5), int64(100)

	resp := doJSON(t, app, http.MethodPut, "/api/stock/quantity", dto.SetQuantityRequest{
		StockKeyRequest: dto.StockKeyRequest{ProductID: "P1", VariantID: "XL"},
		TotalQuantity:   40,
		ReorderPoint:    &rp,
		MaxStockLevel:   &maxLevel,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out dto.StockRecordResponse
	decode(t, resp, &out)
	assert.Equal(t, int64(40), out.TotalQuantity)
	require.NotNil(t, out.MaxStockLevel)
	assert.Equal(t, int64(100), *out.MaxStockLevel)
}

func TestSetQuantity_UmbralesInvalidosResponde400(t *testing.T) {
	app := buildTestApp(t)
	rp, maxLevel := int64(50), int64(10)

	resp := doJSON(t, app, http.MethodPut, "/api/stock/quantity", dto.SetQuantityRequest{
		StockKeyRequest: dto.StockKeyRequest{ProductID: "P1"},
		TotalQuantity:   40,
		ReorderPoint:    &rp,
		MaxStockLevel:   &maxLevel,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, "INVALID_THRESHOLDS", out.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestBulk_LoteCorrecto(t *testing.T) {
	app := buildTestApp(t, record("P1", 10, 0))

	resp := doJSON(t, app, http.MethodPost, "/api/stock/bulk", dto.BulkUpdateRequest{Items: []dto.BulkUpdateItemRequest{
		{StockKeyRequest: dto.StockKeyRequest{ProductID: "P1"}, Quantity: 5, Operation: entity.OperationIncrement},
		{StockKeyRequest: dto.StockKeyRequest{ProductID: "P2"}, Quantity: 7, Operation: entity.OperationSet,
			Location: &dto.LocationRequest{WarehouseID: "BOG-1"}},
	}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var report dto.BulkUpdateReport
	decode(t, resp, &report)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Empty(t, report.Failures)
	assert.False(t, report.Aborted)
}

func TestBulk_SobreUmbralResponde207(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/bulk", dto.BulkUpdateRequest{Items: []dto.BulkUpdateItemRequest{
		{StockKeyRequest: dto.StockKeyRequest{ProductID: "P1"}, Quantity: 5, Operation: entity.OperationSet},
		{StockKeyRequest: dto.StockKeyRequest{ProductID: "P2"}, Quantity: 1, Operation: "MOVE"},
	}})
	assert.Equal(t, fiber.StatusMultiStatus, resp.StatusCode)
	var report dto.BulkUpdateReport
	decode(t, resp, &report)
	assert.True(t, report.Aborted)
	assert.Equal(t, 1, report.SuccessCount)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 1, report.Failures[0].Index)
}

// ──────────────────────────────────────────────────────────────────────────────
// Salud y métricas
// ──────────────────────────────────────────────────────────────────────────────

func TestHealthYMetrics(t *testing.T) {
	app := buildTestApp(t, record("P1", 10, 0))

	resp := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	_ = doJSON(t, app, http.MethodPost, "/api/stock/reserve", dto.ReserveRequest{
		StockKeyRequest: dto.StockKeyRequest{ProductID: "P1"},
		Quantity:        1,
	}).Body.Close()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "reservations_total")
}
