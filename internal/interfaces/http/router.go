package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ServiceName string
	Reservation *inventory.ReservationUseCase
	Bulk        *inventory.BulkUpdateUseCase
	Gatherer    prometheus.Gatherer // nil = sin /metrics
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	stock := app.Group("/api/stock")
	h := NewStockHandler(deps.Reservation, deps.Bulk)
	stock.Post("/reserve", h.Reserve)
	stock.Post("/release", h.Release)
	stock.Post("/commit", h.Commit)
	stock.Put("/quantity", h.SetQuantity)
	stock.Post("/bulk", h.Bulk)
	stock.Get("/:product_id/availability", h.Availability)
}
