package payment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domcheckout "github.com/zapshift/zapshift-backend/internal/domain/checkout"
	domevent "github.com/zapshift/zapshift-backend/internal/domain/event"
	domparcel "github.com/zapshift/zapshift-backend/internal/domain/parcel"
	dompayment "github.com/zapshift/zapshift-backend/internal/domain/payment"
)

type mockGateway struct {
	sessions map[string]*domcheckout.Session
	err      error
}

func (m *mockGateway) CreateSession(context.Context, domcheckout.CreateSessionInput) (*domcheckout.Session, error) {
	return nil, errors.New("not implemented")
}

func (m *mockGateway) RetrieveSession(_ context.Context, id string) (*domcheckout.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	sess, ok := m.sessions[id]
	if !ok {
		return nil, domcheckout.ErrSessionNotFound
	}
	return sess, nil
}

type mockPaymentRepo struct {
	m         sync.Mutex
	records   map[string]*dompayment.Payment
	insertErr error
	lookupErr error
	inserts   int
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{records: map[string]*dompayment.Payment{}}
}

func (m *mockPaymentRepo) Insert(_ context.Context, p *dompayment.Payment) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, exists := m.records[p.TransactionID]; exists {
		return dompayment.ErrDuplicateTransaction
	}
	m.records[p.TransactionID] = p
	m.inserts++
	return nil
}

func (m *mockPaymentRepo) FindByTransactionID(_ context.Context, transactionID string) (*dompayment.Payment, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	p, ok := m.records[transactionID]
	if !ok {
		return nil, dompayment.ErrNotFound
	}
	return p, nil
}

func (m *mockPaymentRepo) ListByPayer(context.Context, string) ([]*dompayment.Payment, error) {
	return nil, errors.New("not implemented")
}

type mockParcelRepo struct {
	markPaidErr   error
	markPaidCalls int
	lastParcelID  string
	lastTracking  string
}

func (m *mockParcelRepo) Insert(context.Context, *domparcel.Parcel) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockParcelRepo) FindByID(context.Context, string) (*domparcel.Parcel, error) {
	return nil, errors.New("not implemented")
}

func (m *mockParcelRepo) List(context.Context, string) ([]*domparcel.Parcel, error) {
	return nil, errors.New("not implemented")
}

func (m *mockParcelRepo) MarkPaid(_ context.Context, id, trackingID string) (int64, error) {
	m.markPaidCalls++
	m.lastParcelID = id
	m.lastTracking = trackingID
	if m.markPaidErr != nil {
		return 0, m.markPaidErr
	}
	return 1, nil
}

func (m *mockParcelRepo) Delete(context.Context, string) error {
	return errors.New("not implemented")
}

type stubTracking struct {
	ids  []string
	next int
}

func (s *stubTracking) NewTrackingID() string {
	id := s.ids[s.next%len(s.ids)]
	s.next++
	return id
}

type recordingBus struct {
	m      sync.Mutex
	events []domevent.Event
	err    error
}

func (b *recordingBus) Publish(_ context.Context, e domevent.Event) error {
	b.m.Lock()
	defer b.m.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, e)
	return nil
}

func paidSession() *domcheckout.Session {
	return &domcheckout.Session{
		ID:            "sess_1",
		PaymentStatus: domcheckout.PaymentStatusPaid,
		TransactionID: "pi_1",
		AmountTotal:   2500,
		Currency:      "usd",
		CustomerEmail: "alice@example.com",
		ParcelID:      "P1",
		ParcelName:    "Documents",
	}
}

func newConfirmFixture(gw *mockGateway) (*ConfirmPaymentUseCase, *mockPaymentRepo, *mockParcelRepo, *recordingBus) {
	payments := newMockPaymentRepo()
	parcels := &mockParcelRepo{}
	bus := &recordingBus{}
	uc := NewConfirmPaymentUseCase(gw, payments, parcels, &stubTracking{ids: []string{"PKG-20260829-AB12CD"}}, bus, nil)
	return uc, payments, parcels, bus
}

func TestConfirmPayment_PaidSession(t *testing.T) {
	gw := &mockGateway{sessions: map[string]*domcheckout.Session{"sess_1": paidSession()}}
	uc, payments, parcels, bus := newConfirmFixture(gw)

	result, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.AlreadyRecorded)
	assert.Equal(t, "PKG-20260829-AB12CD", result.TrackingID)
	assert.Equal(t, "pi_1", result.TransactionID)
	assert.Equal(t, int64(1), result.ParcelModified)

	require.Len(t, payments.records, 1)
	stored := payments.records["pi_1"]
	assert.Equal(t, 25.0, stored.Amount)
	assert.Equal(t, "usd", stored.Currency)
	assert.Equal(t, "alice@example.com", stored.PayerEmail)
	assert.Equal(t, "PKG-20260829-AB12CD", stored.TrackingID)
	assert.False(t, stored.PaidAt.IsZero())

	assert.Equal(t, 1, parcels.markPaidCalls)
	assert.Equal(t, "P1", parcels.lastParcelID)
	assert.Equal(t, "PKG-20260829-AB12CD", parcels.lastTracking)

	require.Len(t, bus.events, 1)
	assert.Equal(t, "payment.recorded", bus.events[0].EventName())
}

func TestConfirmPayment_ReplayEchoesStoredTracking(t *testing.T) {
	gw := &mockGateway{sessions: map[string]*domcheckout.Session{"sess_1": paidSession()}}
	payments := newMockPaymentRepo()
	parcels := &mockParcelRepo{}
	bus := &recordingBus{}
	// Two distinct generated ids prove the replay does not leak a fresh one.
	gen := &stubTracking{ids: []string{"PKG-20260829-AAAAAA", "PKG-20260829-BBBBBB"}}
	uc := NewConfirmPaymentUseCase(gw, payments, parcels, gen, bus, nil)

	first, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	require.NoError(t, err)

	assert.True(t, second.AlreadyRecorded)
	assert.False(t, second.Success)
	assert.Equal(t, first.TrackingID, second.TrackingID)
	assert.Equal(t, "PKG-20260829-AAAAAA", second.TrackingID)

	assert.Equal(t, 1, payments.inserts)
	assert.Equal(t, 1, parcels.markPaidCalls)
	assert.Len(t, bus.events, 1)
}

func TestConfirmPayment_UnpaidSession(t *testing.T) {
	sess := paidSession()
	sess.ID = "sess_2"
	sess.PaymentStatus = domcheckout.PaymentStatusUnpaid
	sess.TransactionID = "pi_2"
	gw := &mockGateway{sessions: map[string]*domcheckout.Session{"sess_2": sess}}
	uc, payments, parcels, bus := newConfirmFixture(gw)

	result, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_2"})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.False(t, result.AlreadyRecorded)
	assert.Equal(t, "pi_2", result.TransactionID)
	assert.Empty(t, result.TrackingID)

	assert.Empty(t, payments.records)
	assert.Zero(t, parcels.markPaidCalls)
	assert.Empty(t, bus.events)
}

func TestConfirmPayment_EmptySessionID(t *testing.T) {
	uc, _, _, _ := newConfirmFixture(&mockGateway{})

	_, err := uc.Execute(context.Background(), ConfirmPaymentInput{})
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestConfirmPayment_UnknownSession(t *testing.T) {
	uc, payments, _, _ := newConfirmFixture(&mockGateway{sessions: map[string]*domcheckout.Session{}})

	_, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_missing"})
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.Empty(t, payments.records)
}

func TestConfirmPayment_GatewayUnavailable(t *testing.T) {
	uc, _, _, _ := newConfirmFixture(&mockGateway{err: domcheckout.ErrGatewayUnavailable})

	_, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	assert.ErrorIs(t, err, domcheckout.ErrGatewayUnavailable)
}

func TestConfirmPayment_DedupLookupFailure(t *testing.T) {
	gw := &mockGateway{sessions: map[string]*domcheckout.Session{"sess_1": paidSession()}}
	uc, payments, _, _ := newConfirmFixture(gw)
	payments.lookupErr = errors.New("connection reset")

	_, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	assert.ErrorIs(t, err, ErrRepository)
}

func TestConfirmPayment_InsertRaceFallsBackToWinner(t *testing.T) {
	gw := &mockGateway{sessions: map[string]*domcheckout.Session{"sess_1": paidSession()}}
	payments := newMockPaymentRepo()
	// Winner committed between the dedup lookup and the insert.
	winner, err := dompayment.New("pi_1", "P1", "Documents", "usd", "alice@example.com", "PKG-20260829-111111", 25)
	require.NoError(t, err)
	parcels := &mockParcelRepo{}
	uc := NewConfirmPaymentUseCase(gw, payments, parcels, &stubTracking{ids: []string{"PKG-20260829-222222"}}, &recordingBus{}, nil)

	payments.lookupErr = dompayment.ErrNotFound
	payments.records["pi_1"] = winner

	result, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	require.NoError(t, err)

	assert.True(t, result.AlreadyRecorded)
	assert.False(t, result.Success)
	// After the duplicate-key hit the use case re-reads the winner, so the
	// caller still sees the tracking id that is actually stored.
	payments.lookupErr = nil
	rereadResult, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	require.NoError(t, err)
	assert.Equal(t, "PKG-20260829-111111", rereadResult.TrackingID)
}

func TestConfirmPayment_ParcelMissingStillRecordsPayment(t *testing.T) {
	gw := &mockGateway{sessions: map[string]*domcheckout.Session{"sess_1": paidSession()}}
	uc, payments, parcels, bus := newConfirmFixture(gw)
	parcels.markPaidErr = domparcel.ErrNotFound

	result, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int64(0), result.ParcelModified)
	assert.Len(t, payments.records, 1)
	assert.Len(t, bus.events, 1)
}

func TestConfirmPayment_MissingParcelMetadataStillRecordsPayment(t *testing.T) {
	sess := paidSession()
	sess.ParcelID = ""
	sess.ParcelName = ""
	gw := &mockGateway{sessions: map[string]*domcheckout.Session{"sess_1": sess}}
	uc, payments, parcels, bus := newConfirmFixture(gw)
	parcels.markPaidErr = domparcel.ErrInvalidID

	result, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int64(0), result.ParcelModified)
	assert.Equal(t, "PKG-20260829-AB12CD", result.TrackingID)

	// The money moved; the record exists even without a parcel reference.
	stored := payments.records["pi_1"]
	require.NotNil(t, stored)
	assert.Empty(t, stored.ParcelID)
	assert.Equal(t, 25.0, stored.Amount)
	assert.Len(t, bus.events, 1)
}

func TestConfirmPayment_ParcelStoreFailure(t *testing.T) {
	gw := &mockGateway{sessions: map[string]*domcheckout.Session{"sess_1": paidSession()}}
	uc, payments, parcels, _ := newConfirmFixture(gw)
	parcels.markPaidErr = errors.New("socket timeout")

	_, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	assert.ErrorIs(t, err, ErrRepository)
	assert.Empty(t, payments.records)
}

func TestConfirmPayment_InsertFailure(t *testing.T) {
	gw := &mockGateway{sessions: map[string]*domcheckout.Session{"sess_1": paidSession()}}
	uc, payments, _, bus := newConfirmFixture(gw)
	payments.insertErr = errors.New("write concern error")

	_, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	assert.ErrorIs(t, err, ErrRepository)
	assert.Empty(t, bus.events)
}

func TestConfirmPayment_PublishFailureDoesNotFailConfirmation(t *testing.T) {
	gw := &mockGateway{sessions: map[string]*domcheckout.Session{"sess_1": paidSession()}}
	payments := newMockPaymentRepo()
	bus := &recordingBus{err: errors.New("queue full")}
	uc := NewConfirmPaymentUseCase(gw, payments, &mockParcelRepo{}, &stubTracking{ids: []string{"PKG-20260829-AB12CD"}}, bus, nil)

	result, err := uc.Execute(context.Background(), ConfirmPaymentInput{SessionID: "sess_1"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, payments.records, 1)
}
