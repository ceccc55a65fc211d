package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//決済セッションIDで検索（照合・確認で使う）
	FindBySessionID(ctx context.Context, sessionID string) (model.Order, error)

	//注文作成トランザクション内でセッションIDを紐付ける（一度だけ）
	SetSessionID(ctx context.Context, orderID int64, sessionID string) error

	//条件付き更新。statusとpayment_statusが両方pendingの行だけをpaid/processingへ進める。
	//該当行が無ければfalse（重複コールバックや競合キャンセル）。
	MarkPaidIfPending(ctx context.Context, orderID int64, paymentIntentID string) (bool, error)

	//pending/processingかつpayment_statusが読んだ時点のfromPaymentのままの行だけをcancelledへ。
	//refundedなら支払いもrefundedにする。支払い照合と競合したらfalse。
	CancelIfActive(ctx context.Context, orderID int64, fromPayment model.PaymentStatus, refunded bool) (bool, error)

	//キャンセル済み・未決済の行を返金済みにする（キャンセル後に決済が成立したケース）。
	MarkRefundedIfCancelled(ctx context.Context, orderID int64, paymentIntentID string) (bool, error)

	//pending/processingの行だけをshippedへ進めて追跡情報を付与。
	MarkShippedIf(ctx context.Context, orderID int64, trackingNumber string, trackingURL string) (bool, error)

	//fromに含まれるステータスの行だけをtoへ（管理者の上書き用）
	UpdateStatusIf(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (bool, error)

	//放置されたpending注文の掃除。対象行数を返す。
	CancelStalePending(ctx context.Context, before time.Time) (int64, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
