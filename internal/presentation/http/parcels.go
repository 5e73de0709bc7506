package httppresentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	appParcel "github.com/zapshift/zapshift-backend/internal/application/parcel"
)

type createParcelRequest struct {
	Name            string  `json:"name" validate:"required"`
	Type            string  `json:"type"`
	WeightKg        float64 `json:"weightKg" validate:"gte=0"`
	Cost            float64 `json:"cost" validate:"gte=0"`
	SenderName      string  `json:"senderName" validate:"required"`
	SenderEmail     string  `json:"senderEmail" validate:"required,email"`
	SenderAddress   string  `json:"senderAddress" validate:"required"`
	SenderRegion    string  `json:"senderRegion"`
	ReceiverName    string  `json:"receiverName" validate:"required"`
	ReceiverPhone   string  `json:"receiverPhone"`
	ReceiverAddress string  `json:"receiverAddress" validate:"required"`
	ReceiverRegion  string  `json:"receiverRegion"`
}

type createParcelResponse struct {
	ParcelID string `json:"parcelId"`
}

func (h *Handler) handleCreateParcel(w http.ResponseWriter, r *http.Request) {
	var req createParcelRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := h.parcels.Create(r.Context(), appParcel.CreateParcelInput{
		Name:            req.Name,
		Type:            req.Type,
		WeightKg:        req.WeightKg,
		Cost:            req.Cost,
		SenderName:      req.SenderName,
		SenderEmail:     req.SenderEmail,
		SenderAddress:   req.SenderAddress,
		SenderRegion:    req.SenderRegion,
		ReceiverName:    req.ReceiverName,
		ReceiverPhone:   req.ReceiverPhone,
		ReceiverAddress: req.ReceiverAddress,
		ReceiverRegion:  req.ReceiverRegion,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createParcelResponse{ParcelID: id})
}

func (h *Handler) handleListParcels(w http.ResponseWriter, r *http.Request) {
	senderEmail := r.URL.Query().Get("email")

	parcels, err := h.parcels.List(r.Context(), senderEmail)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, parcels)
}

func (h *Handler) handleGetParcel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.parcels.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDeleteParcel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.parcels.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
