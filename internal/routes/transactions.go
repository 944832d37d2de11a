package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumapay/lumapay/internal/transactions"
)

// RegisterTransactionRoutes wires transaction history and statistics endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *transactions.Handler) {
	r.Get("/transactions", h.List)
	r.Get("/transactions/statistics", h.Statistics)
}
