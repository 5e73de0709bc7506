package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zapshift/zapshift-backend/internal/application"
	domcheckout "github.com/zapshift/zapshift-backend/internal/domain/checkout"
	domevent "github.com/zapshift/zapshift-backend/internal/domain/event"
	domparcel "github.com/zapshift/zapshift-backend/internal/domain/parcel"
	dompayment "github.com/zapshift/zapshift-backend/internal/domain/payment"
	"github.com/zapshift/zapshift-backend/internal/observability"
	"github.com/zapshift/zapshift-backend/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService        = "payment-service"
	useCasePaymentConfirm = "payment.confirm"
	spanPrefix            = "UC."
	publishPeer           = "eventbus"
	publishEndpoint       = "payment.recorded"
	publishTimeout        = 300 * time.Millisecond
)

var (
	// ErrInvalidSession means the session id resolves to nothing at the provider.
	ErrInvalidSession = errors.New("payment: invalid checkout session")
	// ErrRepository wraps store-layer failures surfaced by the workflow.
	ErrRepository = errors.New("payment: repository failure")
)

var _ application.UseCase[ConfirmPaymentInput, *ConfirmationResult] = (*ConfirmPaymentUseCase)(nil)

type ConfirmPaymentInput struct {
	SessionID string
}

// ConfirmationResult reports the outcome of one confirmation attempt.
// AlreadyRecorded marks a replay: the payment existed before this call and
// nothing was mutated.
type ConfirmationResult struct {
	Success         bool
	AlreadyRecorded bool
	Message         string
	TrackingID      string
	TransactionID   string
	ParcelModified  int64
}

// ConfirmPaymentUseCase transitions a parcel to paid and records the payment
// exactly once per provider transaction id. The pre-insert lookup is a fast
// path; the unique index behind Repository.Insert is the actual guarantee.
type ConfirmPaymentUseCase struct {
	gateway  domcheckout.Gateway
	payments dompayment.Repository
	parcels  domparcel.Repository
	tracking TrackingGenerator
	bus      domevent.Publisher
	tel      observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

// NewConfirmPaymentUseCase wires the dependencies required to execute the workflow.
func NewConfirmPaymentUseCase(
	gateway domcheckout.Gateway,
	payments dompayment.Repository,
	parcels domparcel.Repository,
	tracking TrackingGenerator,
	bus domevent.Publisher,
	tel observability.Observability,
) *ConfirmPaymentUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()

	return &ConfirmPaymentUseCase{
		gateway:      gateway,
		payments:     payments,
		parcels:      parcels,
		tracking:     tracking,
		bus:          bus,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", paymentService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

// Execute performs the confirmation flow for one checkout session.
func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, cmd ConfirmPaymentInput) (_ *ConfirmationResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCasePaymentConfirm),
		observability.F("session_id", cmd.SessionID),
	)

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"ConfirmPayment",
		attribute.String("use_case", useCasePaymentConfirm),
		attribute.String("checkout.session_id", cmd.SessionID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var publishErr error

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		if uc.reqCounter != nil {
			uc.reqCounter.Add(1,
				observability.L("use_case", useCasePaymentConfirm),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(lat,
				observability.L("use_case", useCasePaymentConfirm),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if cmd.SessionID == "" {
		outcome, statusText = "error", "SESSION_ID_REQUIRED"
		return nil, ErrInvalidSession
	}

	// Settlement truth comes from the provider, before any store work.
	sess, gerr := uc.gateway.RetrieveSession(ctx, cmd.SessionID)
	if gerr != nil {
		switch {
		case errors.Is(gerr, domcheckout.ErrSessionNotFound):
			outcome, statusText = "error", "SESSION_NOT_FOUND"
			return nil, ErrInvalidSession
		case errors.Is(gerr, domcheckout.ErrGatewayUnavailable):
			outcome, statusText = "error", "GATEWAY_UNAVAILABLE"
			return nil, gerr
		default:
			outcome, statusText = "error", "SESSION_RETRIEVE_FAILED"
			return nil, fmt.Errorf("%w: %w", domcheckout.ErrGatewayUnavailable, gerr)
		}
	}

	// Generated up front; only the fresh-confirmation path stores it.
	trackingID := uc.tracking.NewTrackingID()
	span.SetAttributes(attribute.String("payment.transaction_id", sess.TransactionID))

	existing, lookupErr := uc.payments.FindByTransactionID(ctx, sess.TransactionID)
	switch {
	case lookupErr == nil:
		statusText = "ALREADY_RECORDED"
		span.AddEvent("payment.replay",
			trace.WithAttributes(attribute.String("payment.transaction_id", existing.TransactionID)),
		)
		return replayResult(existing), nil
	case errors.Is(lookupErr, dompayment.ErrNotFound):
		// continue
	default:
		outcome, statusText = "error", "DEDUP_LOOKUP_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrRepository, lookupErr)
	}

	if !sess.Settled() {
		statusText = "NOT_PAID"
		return &ConfirmationResult{
			Success:       false,
			Message:       "payment not completed",
			TransactionID: sess.TransactionID,
		}, nil
	}

	modified, updErr := uc.parcels.MarkPaid(ctx, sess.ParcelID, trackingID)
	if updErr != nil {
		// A session whose metadata points at a missing or malformed parcel id
		// still gets its payment recorded; the update is reported as a no-op.
		if errors.Is(updErr, domparcel.ErrNotFound) || errors.Is(updErr, domparcel.ErrInvalidID) {
			logger.Warn("parcel_update_skipped",
				observability.F("parcel_id", sess.ParcelID),
				observability.F("error", updErr.Error()),
			)
			modified = 0
		} else {
			outcome, statusText = "error", "PARCEL_UPDATE_FAILED"
			return nil, fmt.Errorf("%w: %w", ErrRepository, updErr)
		}
	}

	record, derr := dompayment.New(
		sess.TransactionID,
		sess.ParcelID,
		sess.ParcelName,
		sess.Currency,
		sess.CustomerEmail,
		trackingID,
		float64(sess.AmountTotal)/100,
	)
	if derr != nil {
		outcome, statusText = "error", "DOMAIN_CONSTRUCTION_FAILED"
		return nil, fmt.Errorf("payment: construct: %w", derr)
	}

	if insErr := uc.payments.Insert(ctx, record); insErr != nil {
		if errors.Is(insErr, dompayment.ErrDuplicateTransaction) {
			// Lost a race against a concurrent confirmation of the same
			// transaction; the unique index kept the store consistent.
			statusText = "ALREADY_RECORDED"
			span.AddEvent("payment.replay_race",
				trace.WithAttributes(attribute.String("payment.transaction_id", sess.TransactionID)),
			)
			if winner, werr := uc.payments.FindByTransactionID(ctx, sess.TransactionID); werr == nil {
				return replayResult(winner), nil
			}
			return &ConfirmationResult{
				AlreadyRecorded: true,
				Message:         "payment already recorded",
				TrackingID:      trackingID,
				TransactionID:   sess.TransactionID,
			}, nil
		}
		outcome, statusText = "error", "PAYMENT_INSERT_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrRepository, insErr)
	}

	publishErr = uc.publishRecorded(ctx, record)
	if publishErr != nil {
		statusText = "EVENT_PUBLISH_FAILED"
	}

	span.AddEvent("payment.recorded",
		trace.WithAttributes(
			attribute.String("payment.transaction_id", record.TransactionID),
			attribute.String("parcel.tracking_id", record.TrackingID),
		),
	)

	return &ConfirmationResult{
		Success:        true,
		Message:        "payment confirmed",
		TrackingID:     trackingID,
		TransactionID:  record.TransactionID,
		ParcelModified: modified,
	}, nil
}

func (uc *ConfirmPaymentUseCase) publishRecorded(ctx context.Context, record *dompayment.Payment) error {
	if uc.bus == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	pubStart := time.Now()
	pubOutcome := "success"
	pubErr := uc.bus.Publish(pubCtx, dompayment.NewPaymentRecordedEvent(record))
	if pubErr != nil {
		pubOutcome = "error"
	}

	if uc.extCounter != nil {
		uc.extCounter.Add(1,
			observability.L("peer", publishPeer),
			observability.L("endpoint", publishEndpoint),
			observability.L("outcome", pubOutcome),
		)
	}
	if uc.extHistogram != nil {
		uc.extHistogram.Observe(time.Since(pubStart).Seconds(),
			observability.L("peer", publishPeer),
			observability.L("endpoint", publishEndpoint),
		)
	}
	return pubErr
}

// replayResult echoes the tracking id stored on the original payment record,
// not a freshly generated one.
func replayResult(existing *dompayment.Payment) *ConfirmationResult {
	return &ConfirmationResult{
		AlreadyRecorded: true,
		Message:         "payment already recorded",
		TrackingID:      existing.TrackingID,
		TransactionID:   existing.TransactionID,
	}
}
