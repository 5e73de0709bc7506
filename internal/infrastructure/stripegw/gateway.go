package stripegw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	domain "github.com/zapshift/zapshift-backend/internal/domain/checkout"
	"github.com/zapshift/zapshift-backend/internal/observability"
)

const componentGateway = "stripe_gateway"

// Gateway adapts Stripe Checkout to the domain's hosted-checkout port. All
// provider calls go through a circuit breaker; an open breaker surfaces as
// checkout.ErrGatewayUnavailable.
type Gateway struct {
	api     *client.API
	breaker *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
	log     observability.Logger
}

func New(apiKey string, logger observability.Logger) *Gateway {
	if logger == nil {
		logger = observability.NopLogger()
	}

	settings := gobreaker.Settings{
		Name:    "stripe-checkout",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Provider-side rejections (unknown session, bad params) mean Stripe
		// answered; only transport/5xx failures count against the breaker.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var stripeErr *stripe.Error
			return errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode < 500
		},
	}

	return &Gateway{
		api:     client.New(apiKey, nil),
		breaker: gobreaker.NewCircuitBreaker[*stripe.CheckoutSession](settings),
		log:     logger.With(observability.F("component", componentGateway)),
	}
}

func (g *Gateway) CreateSession(ctx context.Context, in domain.CreateSessionInput) (*domain.Session, error) {
	if in.AmountMinor <= 0 {
		return nil, fmt.Errorf("stripe: amount must be a positive count of minor units, got %d", in.AmountMinor)
	}

	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(in.Currency),
					UnitAmount: stripe.Int64(in.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(in.PayerEmail),
		SuccessURL:    stripe.String(in.SuccessURL),
		CancelURL:     stripe.String(in.CancelURL),
	}
	params.AddMetadata("parcelId", in.ParcelID)
	params.AddMetadata("parcelName", in.ParcelName)

	sess, err := g.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return g.api.CheckoutSessions.New(params)
	})
	if err != nil {
		g.log.Error("checkout_session_create_failed", observability.F("error", err.Error()))
		return nil, g.mapError(err)
	}

	return toDomainSession(sess), nil
}

func (g *Gateway) RetrieveSession(ctx context.Context, id string) (*domain.Session, error) {
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	}

	sess, err := g.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return g.api.CheckoutSessions.Get(id, params)
	})
	if err != nil {
		return nil, g.mapError(err)
	}

	return toDomainSession(sess), nil
}

func (g *Gateway) mapError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		g.log.Warn("breaker_rejected_call")
		return fmt.Errorf("%w: circuit open", domain.ErrGatewayUnavailable)
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return domain.ErrSessionNotFound
		}
		if stripeErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%w: %s", domain.ErrGatewayUnavailable, stripeErr.Code)
		}
		return fmt.Errorf("stripe: %s: %w", stripeErr.Code, err)
	}

	return fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
}

func toDomainSession(s *stripe.CheckoutSession) *domain.Session {
	out := &domain.Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: domain.PaymentStatus(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		CustomerEmail: s.CustomerEmail,
	}
	if s.PaymentIntent != nil {
		out.TransactionID = s.PaymentIntent.ID
	}
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if s.Metadata != nil {
		out.ParcelID = s.Metadata["parcelId"]
		out.ParcelName = s.Metadata["parcelName"]
	}
	return out
}
