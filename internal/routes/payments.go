package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumapay/lumapay/internal/payments"
)

// RegisterPaymentRoutes wires deposit and transfer endpoints.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler) {
	r.Post("/payments/deposit", h.Deposit)
	r.Post("/payments/transfer", h.Transfer)
}
