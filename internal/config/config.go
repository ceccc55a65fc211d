package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5433）

	JWTSecret string // JWT署名シークレット

	StripeSecretKey    string        // Stripeシークレットキー
	CheckoutSuccessURL string        // 決済成功後のリダイレクト先
	CheckoutCancelURL  string        // 決済中断時のリダイレクト先
	GatewayTimeout     time.Duration // ゲートウェイ呼び出しのタイムアウト

	PendingOrderTTL time.Duration // 未払いpending注文の有効期限
	TrackingBaseURL string        // 追跡URLのベース

	GoEnv     string // dev/prod
	APIDomain string // APIドメイン（cookieやCORSなどで使う）
	FEURL     string // フロントURL（CORSなどで使う）
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := mustAtoi("POSTGRES_PORT")
	if err != nil {
		return Config{}, err
	}

	gatewayTimeoutSec, err := atoiOr("GATEWAY_TIMEOUT_SEC", 10)
	if err != nil {
		return Config{}, err
	}
	pendingTTLHours, err := atoiOr("PENDING_ORDER_TTL_HOURS", 24)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     pgPort,

		JWTSecret: os.Getenv("JWT_SECRET"),

		StripeSecretKey:    os.Getenv("STRIPE_SECRET_KEY"),
		CheckoutSuccessURL: os.Getenv("CHECKOUT_SUCCESS_URL"),
		CheckoutCancelURL:  os.Getenv("CHECKOUT_CANCEL_URL"),
		GatewayTimeout:     time.Duration(gatewayTimeoutSec) * time.Second,

		PendingOrderTTL: time.Duration(pendingTTLHours) * time.Hour,
		TrackingBaseURL: getenvOr("TRACKING_BASE_URL", "https://tracking.example.com/"),

		GoEnv:     os.Getenv("GO_ENV"),
		APIDomain: os.Getenv("API_DOMAIN"),
		FEURL:     os.Getenv("FE_URL"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.PostgresUser == "" {
		return Config{}, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.PostgresPassword == "" {
		return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
	}
	if cfg.PostgresDB == "" {
		return Config{}, fmt.Errorf("POSTGRES_DB is required")
	}
	if cfg.PostgresHost == "" {
		return Config{}, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.StripeSecretKey == "" {
		return Config{}, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if cfg.CheckoutSuccessURL == "" {
		return Config{}, fmt.Errorf("CHECKOUT_SUCCESS_URL is required")
	}
	if cfg.CheckoutCancelURL == "" {
		return Config{}, fmt.Errorf("CHECKOUT_CANCEL_URL is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}
	if cfg.APIDomain == "" {
		return Config{}, fmt.Errorf("API_DOMAIN is required")
	}
	if cfg.FEURL == "" {
		return Config{}, fmt.Errorf("FE_URL is required")
	}

	return cfg, nil
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func atoiOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenvOr(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
