package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumapay/lumapay/internal/messaging"
)

// RegisterMessagingRoutes wires direct-messaging and chat endpoints.
func RegisterMessagingRoutes(r fiber.Router, h *messaging.Handler) {
	r.Post("/messages/text", h.SendText)
	r.Post("/messages/file", h.SendFile)
	r.Get("/chats", h.ListChats)
	r.Get("/chats/:address", h.GetThread)
}
