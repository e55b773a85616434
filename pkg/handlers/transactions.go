package handlers

import (
	"net/http"

	"github.com/chris/teller-queue/pkg/classifier"
	"github.com/chris/teller-queue/pkg/models"
	"github.com/chris/teller-queue/pkg/service"
	"github.com/go-chi/chi/v5"
)

type transactionResponse struct {
	Transaction *models.Transaction `json:"transaction"`
}

type transactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
}

func (b transactionBody) fields() classifier.Fields {
	return classifier.Fields{
		AccountNumber:    string(b.AccountNumber),
		Name:             string(b.Name),
		TransactionType:  string(b.TransactionType),
		Amount:           string(b.Amount),
		AccountType:      string(b.AccountType),
		DepositType:      string(b.DepositType),
		PaymentType:      string(b.PaymentType),
		DisbursementType: string(b.DisbursementType),
	}
}

// CreateTransaction queues a new transaction.
func (h *ApiHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var body transactionBody
	if !decode(w, r, &body) {
		return
	}
	p, _ := PrincipalFrom(r.Context())

	tx, err := h.Service.CreateTransaction(r.Context(), body.fields(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{Transaction: tx})
}

// CreateWithdrawal queues a withdrawal slip.
func (h *ApiHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var body transactionBody
	if !decode(w, r, &body) {
		return
	}
	p, _ := PrincipalFrom(r.Context())

	tx, err := h.Service.CreateWithdrawal(r.Context(), service.WithdrawalRequest{
		AccountNumber: string(body.AccountNumber),
		Name:          string(body.Name),
		Amount:        string(body.Amount),
		AccountType:   string(body.AccountType),
	}, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{Transaction: tx})
}

// UpdateTransaction corrects the details of a transaction that is still Open.
func (h *ApiHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	var body transactionBody
	if !decode(w, r, &body) {
		return
	}
	p, _ := PrincipalFrom(r.Context())

	tx, err := h.Service.UpdateDetails(r.Context(), id, body.fields(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*models.Transaction{"updatedTransaction": tx})
}

// DeleteTransaction soft deletes a transaction.
func (h *ApiHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	p, _ := PrincipalFrom(r.Context())

	tx, err := h.Service.SoftDelete(r.Context(), id, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"DeleteStatus": tx.DeleteStatus})
}

// UpdateTransactionStatus moves a transaction to Open, In Progress or Closed.
func (h *ApiHandler) UpdateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	var body statusBody
	if !decode(w, r, &body) {
		return
	}
	p, _ := PrincipalFrom(r.Context())

	tx, err := h.Service.SetStatus(r.Context(), id, body.Status, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse{Transaction: tx})
}

// ListQueue returns the live transactions of one queue, newest first.
func (h *ApiHandler) ListQueue(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	rows, err := h.Service.ListQueue(r.Context(), chi.URLParam(r, "queue"), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeTransactions(w, rows)
}

// DisplayTransactions returns every live transaction for the display board.
func (h *ApiHandler) DisplayTransactions(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())

	rows, err := h.Service.ListAll(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeTransactions(w, rows)
}

func writeTransactions(w http.ResponseWriter, rows []models.Transaction) {
	if rows == nil {
		rows = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: rows})
}
