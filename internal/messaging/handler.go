package messaging

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes messaging and chat endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a messaging handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type sendTextRequest struct {
	ReceiverAddress string `json:"receiver_address"`
	Text            string `json:"text"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text,omitempty"`
	FileName  string    `json:"file_name,omitempty"`
	FileSize  int64     `json:"file_size,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"is_read"`
}

// SendText delivers a text message to a wallet address.
func (h *Handler) SendText(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	var req sendTextRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	m, err := h.service.SendText(c.UserContext(), uid, req.ReceiverAddress, req.Text)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(m))
}

// SendFile delivers a file attachment to a wallet address. The address and
// file name travel as query parameters; the body is the raw payload.
func (h *Handler) SendFile(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	address := c.Query("receiver_address")
	fileName := c.Query("file_name")
	payload := c.Body()

	m, err := h.service.SendFile(c.UserContext(), uid, address, fileName, payload)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(m))
}

// ListChats returns one summary per counterparty, newest thread first.
func (h *Handler) ListChats(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	chats, err := h.service.ListChats(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"chats": chats})
}

// GetThread returns the conversation with the counterparty behind the
// address and marks it read.
func (h *Handler) GetThread(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	msgs, err := h.service.GetThread(c.UserContext(), uid, c.Params("address"))
	if err != nil {
		return mapError(err)
	}

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toResponse(m))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"messages": out})
}

func toResponse(m Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		FileName:  m.FileName,
		FileSize:  m.FileSize,
		Timestamp: m.Timestamp,
		IsRead:    m.IsRead,
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrRecipientNotFound):
		return fiber.NewError(http.StatusNotFound, "recipient not found")
	case errors.Is(err, ErrEmptyFile):
		return fiber.NewError(http.StatusBadRequest, "file payload is empty")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
