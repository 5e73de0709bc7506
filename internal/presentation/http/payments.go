package httppresentation

import (
	"errors"
	"net/http"

	appPayment "github.com/zapshift/zapshift-backend/internal/application/payment"
)

var errForbiddenFilter = errors.New("payment history of another account is off limits")

type createCheckoutRequest struct {
	ParcelID   string `json:"parcelId" validate:"required"`
	ParcelName string `json:"parcelName"`
	Cost       string `json:"cost" validate:"required"`
}

type createCheckoutResponse struct {
	URL string `json:"url"`
}

func (h *Handler) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req createCheckoutRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// The payer is the verified caller, never a client-supplied field.
	result, err := h.createCheckout.Execute(r.Context(), appPayment.CreateCheckoutInput{
		ParcelID:   req.ParcelID,
		ParcelName: req.ParcelName,
		Cost:       req.Cost,
		PayerEmail: SubjectFromContext(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, createCheckoutResponse{URL: result.URL})
}

type confirmationResponse struct {
	Success         bool   `json:"success"`
	AlreadyRecorded bool   `json:"alreadyRecorded,omitempty"`
	Message         string `json:"message"`
	TrackingID      string `json:"trackingId,omitempty"`
	TransactionID   string `json:"transactionId,omitempty"`
	ParcelModified  int64  `json:"parcelModified,omitempty"`
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	result, err := h.confirmPayment.Execute(r.Context(), appPayment.ConfirmPaymentInput{
		SessionID: sessionID,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, confirmationResponse{
		Success:         result.Success,
		AlreadyRecorded: result.AlreadyRecorded,
		Message:         result.Message,
		TrackingID:      result.TrackingID,
		TransactionID:   result.TransactionID,
		ParcelModified:  result.ParcelModified,
	})
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	subject := SubjectFromContext(r.Context())

	payerEmail := r.URL.Query().Get("email")
	if payerEmail == "" {
		payerEmail = subject
	}
	if payerEmail != subject {
		writeError(w, http.StatusForbidden, errForbiddenFilter)
		return
	}

	payments, err := h.payments.ListByPayer(r.Context(), payerEmail)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payments)
}
