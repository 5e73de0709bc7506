package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	domcheckout "github.com/zapshift/zapshift-backend/internal/domain/checkout"
	"github.com/zapshift/zapshift-backend/internal/observability"
	"github.com/zapshift/zapshift-backend/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseCheckoutCreate = "checkout.create"
	gatewayPeer           = "stripe"
	gatewayEndpoint       = "checkout.session.create"
)

var (
	ErrInvalidAmount = errors.New("checkout: amount must be a positive decimal")
	ErrMissingField  = errors.New("checkout: required field missing")
)

type CreateCheckoutInput struct {
	ParcelID   string
	ParcelName string
	// Cost is the decimal parcel cost in major units, e.g. "25" or "12.99".
	Cost       string
	PayerEmail string
}

type CreateCheckoutResult struct {
	URL string
}

// CreateCheckoutUseCase opens a hosted-checkout session for a parcel. Redirect
// URLs come from configuration; the success one carries the provider's session
// id placeholder so the confirmation callback can find its way back.
type CreateCheckoutUseCase struct {
	gateway    domcheckout.Gateway
	currency   string
	successURL string
	cancelURL  string
	tel        observability.Observability

	log          observability.Logger
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewCreateCheckoutUseCase(gateway domcheckout.Gateway, currency, successURL, cancelURL string, tel observability.Observability) *CreateCheckoutUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &CreateCheckoutUseCase{
		gateway:      gateway,
		currency:     currency,
		successURL:   successURL,
		cancelURL:    cancelURL,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", paymentService)),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

func (uc *CreateCheckoutUseCase) Execute(ctx context.Context, cmd CreateCheckoutInput) (*CreateCheckoutResult, error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseCheckoutCreate),
		observability.F("parcel_id", cmd.ParcelID),
	)

	if cmd.ParcelID == "" || cmd.PayerEmail == "" {
		return nil, ErrMissingField
	}

	amountMinor, err := CostToMinorUnits(cmd.Cost)
	if err != nil {
		return nil, err
	}

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"CreateCheckout",
		attribute.String("use_case", useCaseCheckoutCreate),
		attribute.String("parcel.id", cmd.ParcelID),
		attribute.Int64("checkout.amount_minor", amountMinor),
	)
	defer span.End()

	start := time.Now()
	sess, gerr := uc.gateway.CreateSession(ctx, domcheckout.CreateSessionInput{
		AmountMinor: amountMinor,
		Currency:    uc.currency,
		Description: fmt.Sprintf("Parcel delivery: %s", cmd.ParcelName),
		PayerEmail:  cmd.PayerEmail,
		ParcelID:    cmd.ParcelID,
		ParcelName:  cmd.ParcelName,
		SuccessURL:  uc.successURL,
		CancelURL:   uc.cancelURL,
	})

	gatewayOutcome := "success"
	if gerr != nil {
		gatewayOutcome = "error"
	}
	if uc.extCounter != nil {
		uc.extCounter.Add(1,
			observability.L("peer", gatewayPeer),
			observability.L("endpoint", gatewayEndpoint),
			observability.L("outcome", gatewayOutcome),
		)
	}
	if uc.extHistogram != nil {
		uc.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", gatewayPeer),
			observability.L("endpoint", gatewayEndpoint),
		)
	}

	if gerr != nil {
		logger.Error("checkout_session_create_failed", observability.F("error", gerr.Error()))
		return nil, gerr
	}

	logger.Info("checkout_session_created",
		observability.F("session_id", sess.ID),
		observability.F("amount_minor", amountMinor),
	)
	return &CreateCheckoutResult{URL: sess.URL}, nil
}

// CostToMinorUnits converts a decimal cost in major units into minor units by
// multiplying by 100 and truncating. Sub-cent fractions are dropped; that loss
// is part of the boundary contract with the provider.
func CostToMinorUnits(cost string) (int64, error) {
	d, err := decimal.NewFromString(cost)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, cost)
	}
	minor := d.Mul(decimal.NewFromInt(100)).IntPart()
	if minor <= 0 {
		return 0, ErrInvalidAmount
	}
	return minor, nil
}
