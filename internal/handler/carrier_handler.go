package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CarrierHandler struct {
	uc *usecase.CarrierUsecase
}

// DI
func NewCarrierHandler(uc *usecase.CarrierUsecase) *CarrierHandler {
	return &CarrierHandler{uc: uc}
}

type AdminCreateCarrierRequest struct {
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime string          `json:"delivery_time"`
}

func (h *CarrierHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	//一覧は認証なしで見られる（チェックアウト前に選ばせるため）
	e.GET("/shipping-carriers", h.list)

	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())
	admin.POST("/shipping-carriers", h.adminCreate)
}

func (h *CarrierHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CarrierHandler) adminCreate(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AdminCreateCarrierRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AdminCreate(c.Request().Context(), adminID, usecase.AdminCreateCarrierInput{
		Name:         req.Name,
		Price:        req.Price,
		DeliveryTime: req.DeliveryTime,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}
