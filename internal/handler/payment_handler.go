package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

// DI
func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/payment-status")
	g.Use(middleware.AuthJWT(cfg))

	g.PATCH("", h.confirm)
}

// 決済完了後にフロントから叩かれる照合エンドポイント
func (h *PaymentHandler) confirm(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "session_id is required"})
	}

	out, err := h.uc.Confirm(c.Request().Context(), userID, sessionID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
