package usecase

import (
	"context"
	"errors"
	"net/http"

	"app/internal/domain/model"
	"app/internal/gateway"
	repo "app/internal/repository"
)

// PaymentUsecase は決済セッションの照合（ゲートウェイが正）を行う。
type PaymentUsecase struct {
	tx        repo.TransactionManager
	orderRepo repo.OrderRepository
	gateway   gateway.PaymentGateway
}

func NewPaymentUsecase(tx repo.TransactionManager, orderRepo repo.OrderRepository, gw gateway.PaymentGateway) *PaymentUsecase {
	return &PaymentUsecase{tx: tx, orderRepo: orderRepo, gateway: gw}
}

type ConfirmPaymentOutput struct {
	OrderID       int64  `json:"order_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

// Confirm はsession_idで注文を引き、ゲートウェイの支払状態を照合して
// pending→paidへ進める。重複コールバックは冪等（既にpaidなら成功を返す）。
func (u *PaymentUsecase) Confirm(ctx context.Context, userID int64, sessionID string) (ConfirmPaymentOutput, error) {
	if userID <= 0 {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if sessionID == "" {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "session_id is required")
	}

	order, err := u.orderRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ConfirmPaymentOutput{}, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//他人の注文はセッションIDを知っていても存在を明かさない
	if order.UserID != userID {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusNotFound, "order not found")
	}

	//ゲートウェイに直接問い合わせる（リクエストのpaid主張は信用しない）
	status, err := u.gateway.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gateway.ErrTimeout) {
			return ConfirmPaymentOutput{}, NewHTTPError(http.StatusGatewayTimeout, "gateway timeout")
		}
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusBadGateway, "gateway error")
	}
	if !status.Paid {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "payment not completed")
	}

	var out ConfirmPaymentOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		updated, err := r.Orders().MarkPaidIfPending(ctx, order.ID, status.PaymentIntentID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !updated {
			//CASが外れた。注文を引き直して既にpaidなら冪等成功。
			cur, err := r.Orders().FindByID(ctx, order.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if cur.PaymentStatus == model.PaymentStatusPaid {
				out = ConfirmPaymentOutput{
					OrderID:       cur.ID,
					Status:        string(cur.Status),
					PaymentStatus: string(cur.PaymentStatus),
				}
				return nil
			}
			//キャンセル済みなのに決済だけ成立している。取り込まずに返金する。
			if cur.Status == model.OrderStatusCancelled {
				if err := u.gateway.Refund(ctx, status.PaymentIntentID); err != nil {
					if errors.Is(err, gateway.ErrTimeout) {
						return NewHTTPError(http.StatusGatewayTimeout, "gateway timeout")
					}
					return NewHTTPError(http.StatusBadGateway, "gateway error")
				}
				if _, err := r.Orders().MarkRefundedIfCancelled(ctx, order.ID, status.PaymentIntentID); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				return NewHTTPError(http.StatusConflict, "order cancelled, payment refunded")
			}
			return NewHTTPError(http.StatusConflict, "order is no longer payable")
		}

		if err := r.OrderItems().MarkPaidByOrderID(ctx, order.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = ConfirmPaymentOutput{
			OrderID:       order.ID,
			Status:        string(model.OrderStatusProcessing),
			PaymentStatus: string(model.PaymentStatusPaid),
		}
		return nil
	})
	if err != nil {
		return ConfirmPaymentOutput{}, err
	}
	return out, nil
}
