package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domcheckout "github.com/zapshift/zapshift-backend/internal/domain/checkout"
)

type creatingGateway struct {
	lastInput domcheckout.CreateSessionInput
	session   *domcheckout.Session
	err       error
}

func (g *creatingGateway) CreateSession(_ context.Context, in domcheckout.CreateSessionInput) (*domcheckout.Session, error) {
	g.lastInput = in
	if g.err != nil {
		return nil, g.err
	}
	return g.session, nil
}

func (g *creatingGateway) RetrieveSession(context.Context, string) (*domcheckout.Session, error) {
	return nil, errors.New("not implemented")
}

func TestCostToMinorUnits(t *testing.T) {
	tests := []struct {
		name    string
		cost    string
		want    int64
		wantErr error
	}{
		{name: "whole major units", cost: "25", want: 2500},
		{name: "two decimal places", cost: "12.99", want: 1299},
		{name: "sub-cent fraction truncated", cost: "10.999", want: 1099},
		{name: "zero", cost: "0", wantErr: ErrInvalidAmount},
		{name: "negative", cost: "-3", wantErr: ErrInvalidAmount},
		{name: "not a number", cost: "free", wantErr: ErrInvalidAmount},
		{name: "empty", cost: "", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CostToMinorUnits(tt.cost)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateCheckout_OpensSession(t *testing.T) {
	gw := &creatingGateway{session: &domcheckout.Session{
		ID:  "sess_1",
		URL: "https://checkout.example.com/pay/sess_1",
	}}
	uc := NewCreateCheckoutUseCase(gw, "usd",
		"http://localhost:5173/payment-success?session_id={CHECKOUT_SESSION_ID}",
		"http://localhost:5173/payment-cancelled",
		nil,
	)

	result, err := uc.Execute(context.Background(), CreateCheckoutInput{
		ParcelID:   "P1",
		ParcelName: "Documents",
		Cost:       "25",
		PayerEmail: "alice@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.example.com/pay/sess_1", result.URL)
	assert.Equal(t, int64(2500), gw.lastInput.AmountMinor)
	assert.Equal(t, "usd", gw.lastInput.Currency)
	assert.Equal(t, "alice@example.com", gw.lastInput.PayerEmail)
	assert.Equal(t, "P1", gw.lastInput.ParcelID)
	assert.Equal(t, "Documents", gw.lastInput.ParcelName)
	assert.Contains(t, gw.lastInput.SuccessURL, "{CHECKOUT_SESSION_ID}")
}

func TestCreateCheckout_MissingFields(t *testing.T) {
	uc := NewCreateCheckoutUseCase(&creatingGateway{}, "usd", "s", "c", nil)

	_, err := uc.Execute(context.Background(), CreateCheckoutInput{
		ParcelName: "Documents",
		Cost:       "25",
		PayerEmail: "alice@example.com",
	})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = uc.Execute(context.Background(), CreateCheckoutInput{
		ParcelID: "P1",
		Cost:     "25",
	})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestCreateCheckout_InvalidCost(t *testing.T) {
	uc := NewCreateCheckoutUseCase(&creatingGateway{}, "usd", "s", "c", nil)

	_, err := uc.Execute(context.Background(), CreateCheckoutInput{
		ParcelID:   "P1",
		Cost:       "0",
		PayerEmail: "alice@example.com",
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCreateCheckout_GatewayError(t *testing.T) {
	gw := &creatingGateway{err: domcheckout.ErrGatewayUnavailable}
	uc := NewCreateCheckoutUseCase(gw, "usd", "s", "c", nil)

	_, err := uc.Execute(context.Background(), CreateCheckoutInput{
		ParcelID:   "P1",
		Cost:       "25",
		PayerEmail: "alice@example.com",
	})
	assert.ErrorIs(t, err, domcheckout.ErrGatewayUnavailable)
}
