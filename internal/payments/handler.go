package payments

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lumapay/lumapay/internal/ledger"
	"github.com/lumapay/lumapay/internal/money"
	"github.com/lumapay/lumapay/internal/wallet"
)

// Handler exposes deposit and transfer endpoints.
type Handler struct {
	service *Service
	wallets *wallet.Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service, wallets *wallet.Service) *Handler {
	return &Handler{service: service, wallets: wallets}
}

type depositRequest struct {
	Amount money.Amount `json:"amount"`
}

type transferRequest struct {
	ReceiverAddress string       `json:"receiver_address"`
	Amount          money.Amount `json:"amount"`
}

// Deposit credits the authenticated user's wallet.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	w, err := h.callerWallet(c)
	if err != nil {
		return err
	}

	res, err := h.service.Deposit(c.UserContext(), DepositInput{WalletID: w.ID, Amount: req.Amount})
	if err != nil {
		return mapLedgerError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"balance":        res.NewBalance,
		"completed_at":   res.CompletedAt,
	})
}

// Transfer moves funds from the authenticated user's wallet to the wallet
// behind the destination address.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	w, err := h.callerWallet(c)
	if err != nil {
		return err
	}

	res, err := h.service.Transfer(c.UserContext(), TransferInput{
		WalletID:  w.ID,
		ToAddress: req.ReceiverAddress,
		Amount:    req.Amount,
	})
	if err != nil {
		return mapLedgerError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"balance":        res.NewBalance,
		"completed_at":   res.CompletedAt,
	})
}

func (h *Handler) callerWallet(c *fiber.Ctx) (wallet.Wallet, error) {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return wallet.Wallet{}, fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	w, err := h.wallets.GetByOwner(c.UserContext(), uid)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return wallet.Wallet{}, fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return wallet.Wallet{}, fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return w, nil
}

func mapLedgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, money.ErrMalformed):
		return fiber.NewError(http.StatusBadRequest, "amount must be greater than zero")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, ledger.ErrSelfTransfer):
		return fiber.NewError(http.StatusBadRequest, "cannot transfer to own wallet")
	case errors.Is(err, ledger.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	case errors.Is(err, ledger.ErrUnavailable):
		return fiber.NewError(http.StatusServiceUnavailable, "try again later")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
