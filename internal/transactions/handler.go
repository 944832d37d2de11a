package transactions

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumapay/lumapay/internal/ledger"
	"github.com/lumapay/lumapay/internal/money"
	"github.com/lumapay/lumapay/internal/wallet"
)

const defaultPageSize = 50

// Handler exposes the transaction history and statistics endpoints.
type Handler struct {
	service *Service
	wallets *wallet.Service
}

// NewHandler constructs a transactions handler.
func NewHandler(service *Service, wallets *wallet.Service) *Handler {
	return &Handler{service: service, wallets: wallets}
}

type transactionResponse struct {
	ID        string       `json:"id"`
	Kind      string       `json:"type"`
	Amount    money.Amount `json:"amount"`
	Sender    *string      `json:"sender_wallet,omitempty"`
	Receiver  *string      `json:"receiver_wallet,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// List returns the caller's filtered, paginated transaction history.
func (h *Handler) List(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	w, err := h.wallets.GetByOwner(c.UserContext(), uid)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	filter, err := parseFilter(c)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	page := parsePage(c)

	rows, err := h.service.List(c.UserContext(), w.ID, filter, page)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]transactionResponse, 0, len(rows))
	for _, t := range rows {
		out = append(out, transactionResponse{
			ID:        t.ID,
			Kind:      string(t.Kind),
			Amount:    t.Amount,
			Sender:    t.SenderID,
			Receiver:  t.ReceiverID,
			Timestamp: t.Timestamp,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transactions": out,
		"limit":        page.Limit,
		"offset":       page.Offset,
	})
}

// Statistics returns rolling-window activity counters.
func (h *Handler) Statistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(stats)
}

func parseFilter(c *fiber.Ctx) (ledger.Filter, error) {
	var f ledger.Filter

	if v := c.Query("start_date"); v != "" {
		ts, err := parseTimestamp(v)
		if err != nil {
			return f, err
		}
		f.Start = &ts
	}
	if v := c.Query("end_date"); v != "" {
		ts, err := parseTimestamp(v)
		if err != nil {
			return f, err
		}
		f.End = &ts
	}
	if v := c.Query("min_amount"); v != "" {
		a, err := money.Parse(v)
		if err != nil {
			return f, err
		}
		f.MinAmount = &a
	}
	if v := c.Query("max_amount"); v != "" {
		a, err := money.Parse(v)
		if err != nil {
			return f, err
		}
		f.MaxAmount = &a
	}
	f.Kind = ledger.Kind(c.Query("type"))
	f.Counterparty = c.Query("counterparty")
	return f, nil
}

// parseTimestamp accepts RFC3339 or a bare date.
func parseTimestamp(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, errors.New("timestamp must be RFC3339 or YYYY-MM-DD")
	}
	return ts.UTC(), nil
}

func parsePage(c *fiber.Ctx) ledger.Page {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return ledger.Page{Limit: limit, Offset: offset}
}
