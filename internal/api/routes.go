package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck probes one dependency; a nil error means healthy.
type HealthCheck func(ctx context.Context) error

func RegisterRoutes(app *fiber.App, h *MarketDataHandler, checks map[string]HealthCheck) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		results := make(map[string]string, len(checks))
		status := "ok"
		code := fiber.StatusOK

		healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for name, check := range checks {
			if err := check(healthCtx); err != nil {
				results[name] = err.Error()
				status = "degraded"
				code = fiber.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": results,
		})
	})

	// API routes
	v1 := app.Group("/api/v1")
	v1.Get("/coins", h.Coins)
	v1.Get("/coins/all", h.AllCoins)
	v1.Get("/exchanges", h.Exchanges)
	v1.Get("/price", h.Price)
	v1.Get("/pricemulti", h.PriceMulti)
	v1.Get("/pricefull", h.PriceFull)
	v1.Get("/pricehistorical", h.PriceHistorical)
	v1.Get("/generateavg", h.GenerateAvg)
	v1.Get("/top/pairs", h.TopPairs)
	v1.Get("/top/exchanges", h.TopExchanges)
	v1.Get("/histo/:period", h.Histo)
}
