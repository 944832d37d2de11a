package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumapay/lumapay/internal/wallet"
)

// RegisterWalletRoutes wires wallet endpoints for the authenticated user.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallet", h.Me)
	r.Get("/wallet/balance", h.Balance)
	r.Get("/wallet/address", h.Address)
}
