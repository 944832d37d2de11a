package identity

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lumapay/lumapay/internal/wallet"
)

// Handler exposes identity endpoints.
type Handler struct {
	service *Service
	wallets *wallet.Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service, wallets *wallet.Service) *Handler {
	return &Handler{service: service, wallets: wallets}
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type registerResponse struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	WalletAddress string `json:"wallet_address"`
}

// Register onboards a user and provisions their wallet.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Register(c.UserContext(), Credentials{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	w, err := h.wallets.Create(c.UserContext(), wallet.CreateInput{OwnerID: user.ID, OwnerName: user.Username})
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "wallet provisioning failed")
	}

	return c.Status(http.StatusCreated).JSON(registerResponse{
		UserID:        user.ID,
		Username:      user.Username,
		WalletAddress: w.Address,
	})
}
