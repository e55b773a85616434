// Package handlers exposes the routing service over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/chris/teller-queue/pkg/auth"
	"github.com/chris/teller-queue/pkg/classifier"
	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/ratelimit"
	"github.com/chris/teller-queue/pkg/routing"
	"github.com/chris/teller-queue/pkg/service"
	"github.com/go-chi/chi/v5"
)

// RoutingService is the set of operations the HTTP surface calls.
type RoutingService interface {
	CreateTransaction(ctx context.Context, req classifier.Fields, p models.Principal) (*models.Transaction, error)
	CreateWithdrawal(ctx context.Context, req service.WithdrawalRequest, p models.Principal) (*models.Transaction, error)
	ListQueue(ctx context.Context, queue string, p models.Principal) ([]models.Transaction, error)
	ListAll(ctx context.Context, p models.Principal) ([]models.Transaction, error)
	SetStatus(ctx context.Context, id int64, status string, p models.Principal) (*models.Transaction, error)
	UpdateDetails(ctx context.Context, id int64, req classifier.Fields, p models.Principal) (*models.Transaction, error)
	SoftDelete(ctx context.Context, id int64, p models.Principal) (*models.Transaction, error)
	CreateUser(ctx context.Context, req service.NewUser, p models.Principal) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, req service.NewUser, p models.Principal) (*models.User, error)
	IssueCredential(ctx context.Context, username, password, origin string, asAdmin bool) (string, models.Principal, error)
	VerifyCredential(token string) (models.Principal, error)
}

// Make sure we conform to the interface
var _ RoutingService = (*service.Service)(nil)

// ApiHandler holds the dependencies of the HTTP handlers.
type ApiHandler struct {
	Service RoutingService
	Limiter ratelimit.Limiter
	Logger  *slog.Logger
}

// NewApiHandler creates a new ApiHandler. A nil limiter disables login throttling.
func NewApiHandler(svc RoutingService, limiter ratelimit.Limiter, logger *slog.Logger) *ApiHandler {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ApiHandler{Service: svc, Limiter: limiter, Logger: logger}
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeError maps service errors to status codes. Unrecognized errors are
// reported as a generic 500 and never leak their text.
func (h *ApiHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if vf, ok := classifier.AsValidationFailure(err); ok {
		writeMessage(w, http.StatusBadRequest, vf.Error())
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		writeMessage(w, http.StatusBadRequest, "Status must be Open, In Progress or Closed")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, auth.ErrInvalidOrExpiredCredential):
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, auth.ErrForbiddenOrigin), errors.Is(err, service.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, routing.ErrUnknownQueue):
		writeMessage(w, http.StatusNotFound, "Queue not found")
	case errors.Is(err, service.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, service.ErrNotCorrectable):
		writeMessage(w, http.StatusConflict, "Transaction is already being served")
	case errors.Is(err, service.ErrDuplicateUsername):
		writeMessage(w, http.StatusConflict, "Username already exists")
	default:
		if !errors.Is(err, service.ErrInternal) {
			h.Logger.Error("unhandled error", "path", r.URL.Path, "error", err)
		}
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func transactionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return pathID(w, r, "Invalid transaction id")
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return pathID(w, r, "Invalid user id")
}

func pathID(w http.ResponseWriter, r *http.Request, invalid string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, invalid)
		return 0, false
	}
	return id, true
}

// Health reports that the process is serving.
func (h *ApiHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
