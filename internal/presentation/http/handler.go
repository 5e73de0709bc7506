package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	appParcel "github.com/zapshift/zapshift-backend/internal/application/parcel"
	appPayment "github.com/zapshift/zapshift-backend/internal/application/payment"
	appUser "github.com/zapshift/zapshift-backend/internal/application/user"
	domcheckout "github.com/zapshift/zapshift-backend/internal/domain/checkout"
	domparcel "github.com/zapshift/zapshift-backend/internal/domain/parcel"
	domuser "github.com/zapshift/zapshift-backend/internal/domain/user"
	"github.com/zapshift/zapshift-backend/internal/observability"
)

const componentHTTPHandler = "http_server"

// TokenVerifier yields the verified subject email for a bearer credential.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenIssuer signs a credential for a subject; used by the login endpoint.
type TokenIssuer interface {
	Issue(email, role string) (string, error)
}

type Handler struct {
	parcels        *appParcel.Service
	users          *appUser.Service
	payments       *appPayment.Service
	createCheckout *appPayment.CreateCheckoutUseCase
	confirmPayment *appPayment.ConfirmPaymentUseCase
	verifier       TokenVerifier
	issuer         TokenIssuer
	validate       *validator.Validate
	log            observability.Logger
	tel            observability.Observability
}

func NewHandler(
	parcels *appParcel.Service,
	users *appUser.Service,
	payments *appPayment.Service,
	createCheckout *appPayment.CreateCheckoutUseCase,
	confirmPayment *appPayment.ConfirmPaymentUseCase,
	verifier TokenVerifier,
	issuer TokenIssuer,
	tel observability.Observability,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		parcels:        parcels,
		users:          users,
		payments:       payments,
		createCheckout: createCheckout,
		confirmPayment: confirmPayment,
		verifier:       verifier,
		issuer:         issuer,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		log:            tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:            tel,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(h.withObservability)

	r.Get("/health", h.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", h.handleUpsertUser)
		// Confirmation arrives as a browser redirect from the hosted checkout
		// page; it carries no bearer credential.
		r.Get("/payments/confirm", h.handleConfirmPayment)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Route("/parcels", func(r chi.Router) {
				r.Post("/", h.handleCreateParcel)
				r.Get("/", h.handleListParcels)
				r.Get("/{id}", h.handleGetParcel)
				r.Delete("/{id}", h.handleDeleteParcel)
			})

			r.Post("/payments/checkout-session", h.handleCreateCheckout)
			r.Get("/payments", h.handleListPayments)
			r.Get("/users", h.handleListUsers)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeAndValidate(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, appPayment.ErrInvalidSession),
		errors.Is(err, appPayment.ErrInvalidAmount),
		errors.Is(err, appPayment.ErrMissingField),
		errors.Is(err, domparcel.ErrInvalid),
		errors.Is(err, domparcel.ErrInvalidID),
		errors.Is(err, domuser.ErrInvalid),
		errors.As(err, &validationErrs):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domparcel.ErrNotFound),
		errors.Is(err, domuser.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domcheckout.ErrGatewayUnavailable):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
