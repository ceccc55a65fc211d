package server

import (
	"net/http"

	"app/internal/metrics"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// New はechoインスタンスを組み立てる。ルートは各Handler側で登録する。
func New(m *metrics.ServerMetrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(m.Middleware())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return e
}

func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
