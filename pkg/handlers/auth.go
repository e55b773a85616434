package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/chris/teller-queue/pkg/identity"
	"github.com/chris/teller-queue/pkg/models"
)

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFrom returns the principal attached by Authenticate.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

// Authenticate verifies the bearer credential and attaches its principal to the
// request context.
func (h *ApiHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}
		p, err := h.Service.VerifyCredential(token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey, p)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type loginResponse struct {
	Message      string      `json:"message"`
	Token        string      `json:"token"`
	Role         models.Role `json:"role"`
	TellerNumber int         `json:"tellerNumber"`
}

// Login signs a station account in.
func (h *ApiHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

// AdminLogin signs an administrator account in.
func (h *ApiHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

func (h *ApiHandler) login(w http.ResponseWriter, r *http.Request, asAdmin bool) {
	// Attempts are counted per connection address. X-Forwarded-For is caller
	// controlled and only picks the station.
	key := identity.Normalize(r.RemoteAddr)
	if key == "" {
		key = r.RemoteAddr
	}

	decision, err := h.Limiter.Allow(r.Context(), key)
	if err != nil {
		h.Logger.Warn("login rate limiter unavailable", "remote", key, "error", err)
	} else if !decision.Allowed {
		seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
		writeMessage(w, http.StatusTooManyRequests, "Too many login attempts")
		return
	}

	var body credentialsBody
	if !decode(w, r, &body) {
		return
	}

	token, p, err := h.Service.IssueCredential(r.Context(), body.Username, body.Password, identity.Origin(r), asAdmin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Message:      "Login successful",
		Token:        token,
		Role:         p.Role,
		TellerNumber: p.Station,
	})
}

// Logout acknowledges a sign-out. Credentials are stateless and simply expire.
func (h *ApiHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the caller's principal.
func (h *ApiHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	writeJSON(w, http.StatusOK, p)
}
