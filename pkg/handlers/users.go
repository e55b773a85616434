package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/chris/teller-queue/pkg/classifier"
	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/service"
)

// CreateUser creates a station or administrator account.
func (h *ApiHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	p, _ := PrincipalFrom(r.Context())

	user, err := h.Service.CreateUser(r.Context(), req, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]*models.User{"user": user})
}

// UpdateUser corrects an existing account. Every field is required and the
// password is re-hashed.
func (h *ApiHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	req, ok := decodeUser(w, r)
	if !ok {
		return
	}
	p, _ := PrincipalFrom(r.Context())

	user, err := h.Service.UpdateUser(r.Context(), id, req, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*models.User{"updatedUser": user})
}

func decodeUser(w http.ResponseWriter, r *http.Request) (service.NewUser, bool) {
	var body userBody
	if !decode(w, r, &body) {
		return service.NewUser{}, false
	}
	tellerNumber, err := strconv.Atoi(strings.TrimSpace(string(body.TellerNumber)))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, string(classifier.ReasonMissingFields))
		return service.NewUser{}, false
	}
	return service.NewUser{
		Name:         body.Name,
		LastName:     body.LastName,
		Username:     body.Username,
		Password:     body.Password,
		TellerNumber: tellerNumber,
	}, true
}
