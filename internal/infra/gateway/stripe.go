package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gw "app/internal/gateway"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// StripeGateway はgw.PaymentGatewayのStripe実装。
// APIキーはグローバルではなくインスタンスに持たせる。
type StripeGateway struct {
	api        *client.API
	successURL string
	cancelURL  string
	currency   string
}

func NewStripeGateway(secretKey string, successURL string, cancelURL string, timeout time.Duration) *StripeGateway {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: &http.Client{Timeout: timeout},
	})

	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	return &StripeGateway{
		api:        api,
		successURL: successURL,
		cancelURL:  cancelURL,
		currency:   string(stripe.CurrencyUSD),
	}
}

func (g *StripeGateway) CreateSession(ctx context.Context, items []gw.LineItem, meta gw.SessionMetadata) (gw.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(g.successURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(g.cancelURL),
	}

	for _, it := range items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
				UnitAmount: stripe.Int64(it.UnitAmount),
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}

	params.AddMetadata("order_id", strconv.FormatInt(meta.OrderID, 10))
	if meta.CouponCode != "" {
		params.AddMetadata("code", meta.CouponCode)
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return gw.Session{}, mapStripeErr(err)
	}
	return gw.Session{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (gw.SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}}

	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return gw.SessionStatus{}, mapStripeErr(err)
	}

	st := gw.SessionStatus{
		Paid: s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
	if s.PaymentIntent != nil {
		st.PaymentIntentID = s.PaymentIntent.ID
	}
	return st, nil
}

func (g *StripeGateway) ChargeSucceeded(ctx context.Context, paymentIntentID string) (bool, error) {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}

	pi, err := g.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return false, mapStripeErr(err)
	}
	return pi.Status == stripe.PaymentIntentStatusSucceeded, nil
}

func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string) error {
	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(paymentIntentID),
	}

	if _, err := g.api.Refunds.New(params); err != nil {
		return mapStripeErr(err)
	}
	return nil
}

// タイムアウト系だけgw.ErrTimeoutへ寄せる
func mapStripeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return gw.ErrTimeout
	}

	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return gw.ErrTimeout
	}
	return err
}
