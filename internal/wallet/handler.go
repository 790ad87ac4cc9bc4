package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/lancepay/internal/fault"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the wallet routes on an authenticated group.
func (h *Handler) Register(g *echo.Group) {
	g.GET("/wallet", h.GetWallet)
	g.GET("/wallet/transactions", h.Transactions)
	g.POST("/wallet/recharge", h.Recharge)
	g.POST("/wallet/withdraw", h.Withdraw)
}

func (h *Handler) GetWallet(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	st, err := h.svc.GetWallet(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) Transactions(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	st, err := h.svc.GetWallet(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st.Transactions)
}

type RechargeRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handler) Recharge(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req RechargeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	w, tx, err := h.svc.Recharge(c.Request().Context(), userID, req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"wallet": w, "transaction": tx})
}

type WithdrawRequest struct {
	Amount          int64  `json:"amount"`
	PaymentMethodID string `json:"payment_method_id"`
}

func (h *Handler) Withdraw(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req WithdrawRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	w, tx, err := h.svc.Withdraw(c.Request().Context(), userID, req.Amount, req.PaymentMethodID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"wallet": w, "transaction": tx})
}

func respondError(c echo.Context, err error) error {
	return c.JSON(fault.HTTPStatus(err), echo.Map{"error": err.Error()})
}
