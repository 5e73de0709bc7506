package notification

import (
	"context"

	domevent "github.com/zapshift/zapshift-backend/internal/domain/event"
	dompayment "github.com/zapshift/zapshift-backend/internal/domain/payment"
	"github.com/zapshift/zapshift-backend/internal/observability"
	"github.com/zapshift/zapshift-backend/internal/observability/logctx"
)

const componentWorker = "notification_worker"

// Worker listens for recorded payments and emits a receipt notification.
// Delivery is a structured log line for now; a mail provider slots in behind
// the same handler.
type Worker struct {
	subscriber domevent.Subscriber
	log        observability.Logger
	sent       observability.Counter
}

func New(subscriber domevent.Subscriber, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber: subscriber,
		log:        tel.Logger().With(observability.F("component", componentWorker)),
		sent:       tel.Metrics().Counter(observability.MNotificationsSent),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil {
		return
	}
	w.subscriber.Subscribe(dompayment.PaymentRecordedEvent{}.EventName(), w.handlePaymentRecorded)
}

func (w *Worker) handlePaymentRecorded(ctx context.Context, e domevent.Event) error {
	evt, ok := e.(dompayment.PaymentRecordedEvent)
	if !ok {
		return nil
	}

	logger := logctx.FromOr(ctx, w.log)
	logger.Info("receipt_sent",
		observability.F("payer_email", evt.PayerEmail),
		observability.F("transaction_id", evt.TransactionID),
		observability.F("tracking_id", evt.TrackingID),
		observability.F("amount", evt.Amount),
		observability.F("currency", evt.Currency),
	)

	if w.sent != nil {
		w.sent.Add(1, observability.L("channel", "email"))
	}
	return nil
}
