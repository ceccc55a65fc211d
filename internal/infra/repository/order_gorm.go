package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) FindBySessionID(ctx context.Context, sessionID string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

// セッションIDは未設定の行にだけ入れる（上書き禁止）
func (r *OrderGormRepository) SetSessionID(ctx context.Context, orderID int64, sessionID string) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND (session_id IS NULL OR session_id = '')", orderID).
		Update("session_id", sessionID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 条件付き更新（compare-and-set）。
// 重複した支払い確認コールバックと並行キャンセルの競合をここで潰す。
// statusも条件に入れる：キャンセル済みの注文をpaidに復活させない。
func (r *OrderGormRepository) MarkPaidIfPending(ctx context.Context, orderID int64, paymentIntentID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			orderID, model.OrderStatusPending, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status":    model.PaymentStatusPaid,
			"status":            model.OrderStatusProcessing,
			"payment_intent_id": paymentIntentID,
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// fromPaymentは呼び出し側が読んだ時点のpayment_status。
// 読みとキャンセルの間に支払い照合が割り込んだらCASを外す。
func (r *OrderGormRepository) CancelIfActive(ctx context.Context, orderID int64, fromPayment model.PaymentStatus, refunded bool) (bool, error) {
	updates := map[string]interface{}{
		"status": model.OrderStatusCancelled,
	}
	if refunded {
		updates["payment_status"] = model.PaymentStatusRefunded
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ? AND payment_status = ?", orderID, []model.OrderStatus{
			model.OrderStatusPending,
			model.OrderStatusProcessing,
		}, fromPayment).
		Updates(updates)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// キャンセル後にゲートウェイ側で決済が成立していた場合の返金記録。
func (r *OrderGormRepository) MarkRefundedIfCancelled(ctx context.Context, orderID int64, paymentIntentID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?",
			orderID, model.OrderStatusCancelled, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status":    model.PaymentStatusRefunded,
			"payment_intent_id": paymentIntentID,
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) MarkShippedIf(ctx context.Context, orderID int64, trackingNumber string, trackingURL string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, []model.OrderStatus{
			model.OrderStatusPending,
			model.OrderStatusProcessing,
		}).
		Updates(map[string]interface{}{
			"status":          model.OrderStatusShipped,
			"tracking_number": trackingNumber,
			"tracking_url":    trackingURL,
		})

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderGormRepository) UpdateStatusIf(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Update("status", to)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// beforeより古い未決済pendingをまとめてキャンセル（放置セッションの掃除）
func (r *OrderGormRepository) CancelStalePending(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ? AND payment_status = ? AND created_at < ?",
			model.OrderStatusPending, model.PaymentStatusPending, before).
		Update("status", model.OrderStatusCancelled)

	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//user_id 絞り込み
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}
