package handler

import (
	"net/http"
	"time"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CouponHandler struct {
	uc *usecase.CouponUsecase
}

// DI
func NewCouponHandler(uc *usecase.CouponUsecase) *CouponHandler {
	return &CouponHandler{uc: uc}
}

type ApplyCouponRequest struct {
	Code       string          `json:"code"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

type AdminCreateCouponRequest struct {
	Code          string           `json:"code"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinOrderValue decimal.Decimal  `json:"min_order_value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	ValidFrom     time.Time        `json:"valid_from"`
	ValidTo       time.Time        `json:"valid_to"`
}

func (h *CouponHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/apply-coupon", h.apply)
	g.GET("/coupons", h.list)

	admin := e.Group("/admin")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())
	admin.POST("/coupons", h.adminCreate)
}

// 割引額のプレビュー（注文は作らない）
func (h *CouponHandler) apply(c echo.Context) error {
	if _, ok := getUserIDFromContext(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req ApplyCouponRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Apply(c.Request().Context(), usecase.ApplyCouponInput{
		Code:       req.Code,
		OrderTotal: req.OrderTotal,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CouponHandler) list(c echo.Context) error {
	if _, ok := getUserIDFromContext(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListAvailable(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CouponHandler) adminCreate(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AdminCreateCouponRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AdminCreate(c.Request().Context(), adminID, usecase.AdminCreateCouponInput{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinOrderValue: req.MinOrderValue,
		MaxDiscount:   req.MaxDiscount,
		ValidFrom:     req.ValidFrom,
		ValidTo:       req.ValidTo,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}
