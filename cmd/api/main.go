package main

import (
	"context"
	"log"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraGw "app/internal/infra/gateway"
	infraRepo "app/internal/infra/repository"
	"app/internal/metrics"
	mw "app/internal/middleware"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	//.envはあれば読む（本番は環境変数のみ）
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}
	if err := gormDB.AutoMigrate(
		&model.Product{},
		&model.Address{},
		&model.CartItem{},
		&model.Coupon{},
		&model.ShippingCarrier{},
		&model.Order{},
		&model.OrderItem{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal(err)
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	couponRepo := infraRepo.NewCouponGormRepository(gormDB)
	carrierRepo := infraRepo.NewCarrierGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//決済ゲートウェイ（Stripe）
	stripeGW := infraGw.NewStripeGateway(
		cfg.StripeSecretKey,
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
		cfg.GatewayTimeout,
	)

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo)
	cartUC := usecase.NewCartUsecase(cartItemRepo, productRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	checkoutUC := usecase.NewCheckoutUsecase(txManager, stripeGW)
	paymentUC := usecase.NewPaymentUsecase(txManager, orderRepo, stripeGW)
	orderUC := usecase.NewOrderUsecase(txManager, stripeGW)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo, stripeGW, cfg.TrackingBaseURL)
	couponUC := usecase.NewCouponUsecase(couponRepo, auditRepo)
	carrierUC := usecase.NewCarrierUsecase(carrierRepo)

	//Server組み立て
	m := metrics.NewServerMetrics("api")
	e := server.New(m)

	handler.NewProductHandler(productUC).RegisterRoutes(e)
	handler.NewCartHandler(cartUC).RegisterRoutes(e, cfg)
	handler.NewCheckoutHandler(checkoutUC).RegisterRoutes(e, cfg)
	handler.NewPaymentHandler(paymentUC).RegisterRoutes(e, cfg)
	handler.NewOrderHandler(orderUC).RegisterRoutes(e, cfg)
	handler.NewAdminOrderHandler(adminOrderUC).RegisterRoutes(e, cfg)
	handler.NewCouponHandler(couponUC).RegisterRoutes(e, cfg)
	handler.NewCarrierHandler(carrierUC).RegisterRoutes(e, cfg)

	//住所系は認証グループにまとめて登録
	authGroup := e.Group("")
	authGroup.Use(mw.AuthJWT(cfg))
	handler.NewAddressHandler(addressUC).RegisterRoutes(authGroup)

	//放置されたpending注文の定期キャンセル
	go expireLoop(adminOrderUC, cfg.PendingOrderTTL)

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	if err := server.Start(e, addr); err != nil {
		log.Fatal(err)
	}
}

// 1時間ごとにTTL超過のpending注文を掃除する
func expireLoop(uc *usecase.AdminOrderUsecase, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := uc.ExpirePendingOrders(ctx, ttl)
		cancel()
		if err != nil {
			log.Printf("expire pending orders: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("expired %d pending orders", n)
		}
	}
}
