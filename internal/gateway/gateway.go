package gateway

import (
	"context"
	"errors"
)

// 外部ゲートウェイがタイムアウトした（呼び出し側は504に変換する）
var ErrTimeout = errors.New("gateway timeout")

// 決済セッションの明細。金額は最小通貨単位（セント）で渡す。
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

type SessionMetadata struct {
	OrderID    int64
	CouponCode string
}

// ホスト型決済セッション
type Session struct {
	ID  string
	URL string
}

type SessionStatus struct {
	Paid            bool
	PaymentIntentID string
}

// 決済プロバイダへの窓口。実装はinfra/gateway。
type PaymentGateway interface {
	CreateSession(ctx context.Context, items []LineItem, meta SessionMetadata) (Session, error)
	GetSession(ctx context.Context, sessionID string) (SessionStatus, error)

	// 支払い参照（payment intent）が成功済みかを確認する
	ChargeSucceeded(ctx context.Context, paymentIntentID string) (bool, error)

	Refund(ctx context.Context, paymentIntentID string) error
}
