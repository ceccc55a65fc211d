package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"

	"github.com/google/uuid"
)

type AdminOrderUsecase struct {
	tx              repo.TransactionManager
	auditRepo       repo.AuditLogRepository
	gateway         gateway.PaymentGateway
	trackingBaseURL string
}

func NewAdminOrderUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository, gw gateway.PaymentGateway, trackingBaseURL string) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, auditRepo: auditRepo, gateway: gw, trackingBaseURL: trackingBaseURL}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type AdminUpdateOrderStatusOutput struct {
	OrderID        int64  `json:"order_id"`
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`
}

// 注文一覧（全ユーザー横断）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// ステータス更新。shippedへ進めるときは追跡番号を発行する。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (AdminUpdateOrderStatusOutput, error) {
	if actorAdminUserID <= 0 {
		return AdminUpdateOrderStatusOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return AdminUpdateOrderStatusOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	switch newStatus {
	case model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled:
		// OK
	default:
		return AdminUpdateOrderStatusOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out AdminUpdateOrderStatusOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = AdminUpdateOrderStatusOutput{
				OrderID:        o.ID,
				Status:         string(o.Status),
				TrackingNumber: o.TrackingNumber,
				TrackingURL:    o.TrackingURL,
			}
			return nil
		}

		// 終端ガード
		if o.Status == model.OrderStatusCancelled {
			return NewHTTPError(http.StatusBadRequest, "cannot change cancelled order")
		}
		if o.Status == model.OrderStatusDelivered {
			return NewHTTPError(http.StatusBadRequest, "cannot change delivered order")
		}
		//shippedからはdeliveredにしか進めない
		if o.Status == model.OrderStatusShipped && newStatus != model.OrderStatusDelivered {
			return NewHTTPError(http.StatusBadRequest, "order already shipped")
		}

		beforeStatus := string(o.Status)
		trackingNumber := o.TrackingNumber
		trackingURL := o.TrackingURL

		var updated bool
		var refundIssued bool
		switch newStatus {
		case model.OrderStatusShipped:
			trackingNumber = newTrackingNumber()
			trackingURL = u.trackingBaseURL + trackingNumber
			updated, err = r.Orders().MarkShippedIf(ctx, orderID, trackingNumber, trackingURL)
		case model.OrderStatusCancelled:
			//支払い済みなら管理者キャンセルでも返金してから取り消す
			if o.PaymentStatus == model.PaymentStatusPaid && o.PaymentIntentID != "" {
				succeeded, err := u.gateway.ChargeSucceeded(ctx, o.PaymentIntentID)
				if err != nil {
					if errors.Is(err, gateway.ErrTimeout) {
						return NewHTTPError(http.StatusGatewayTimeout, "gateway timeout")
					}
					return NewHTTPError(http.StatusBadGateway, "gateway error")
				}
				if succeeded {
					if err := u.gateway.Refund(ctx, o.PaymentIntentID); err != nil {
						if errors.Is(err, gateway.ErrTimeout) {
							return NewHTTPError(http.StatusGatewayTimeout, "gateway timeout")
						}
						return NewHTTPError(http.StatusBadGateway, "gateway error")
					}
					refundIssued = true
				}
			}
			updated, err = r.Orders().CancelIfActive(ctx, orderID, o.PaymentStatus, refundIssued)
		case model.OrderStatusDelivered:
			updated, err = r.Orders().UpdateStatusIf(ctx, orderID, []model.OrderStatus{model.OrderStatusShipped, model.OrderStatusProcessing}, model.OrderStatusDelivered)
		default: // processing
			updated, err = r.Orders().UpdateStatusIf(ctx, orderID, []model.OrderStatus{model.OrderStatusPending}, model.OrderStatusProcessing)
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !updated {
			if refundIssued {
				//返金済みなのに行が進められない＝状態が壊れている
				return NewHTTPError(http.StatusInternalServerError, "order state inconsistent after refund")
			}
			//並行更新で先を越された
			return NewHTTPError(http.StatusConflict, "order status changed concurrently")
		}

		// 監査ログ（UPDATE_ORDER_STATUS）
		beforeJSON := `{"status":"` + beforeStatus + `"}`
		afterJSON := `{"status":"` + string(newStatus) + `"}`
		if err := u.auditRepo.Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   beforeJSON,
			AfterJSON:    afterJSON,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = AdminUpdateOrderStatusOutput{
			OrderID:        orderID,
			Status:         string(newStatus),
			TrackingNumber: trackingNumber,
			TrackingURL:    trackingURL,
		}
		return nil
	})

	if err != nil {
		return AdminUpdateOrderStatusOutput{}, err
	}
	return out, nil
}

// ExpirePendingOrders はTTLを過ぎた未払いpending注文をまとめてキャンセルする。
// 定期実行（main側のticker）から呼ばれる。
func (u *AdminOrderUsecase) ExpirePendingOrders(ctx context.Context, ttl time.Duration) (int64, error) {
	var n int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		count, err := r.Orders().CancelStalePending(ctx, time.Now().Add(-ttl))
		if err != nil {
			return err
		}
		n = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func newTrackingNumber() string {
	//UUIDの先頭12桁で十分衝突しない
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TRK-" + id[:12]
}
