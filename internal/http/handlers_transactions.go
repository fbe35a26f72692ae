package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"cashbook/internal/core"
	applog "cashbook/internal/log"
)

type transactionCreatedResponse struct {
	Transaction    core.Transaction `json:"transaction"`
	CurrentBalance decimal.Decimal  `json:"current_balance"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, balance, err := s.ledger.CreateTransaction(r.Context(), req.toInput())
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		applog.FieldTransactionID, tx.ID,
		applog.FieldTransactionType, string(tx.Type),
		applog.FieldAmount, tx.Amount.StringFixed(2),
		applog.FieldReference, tx.ReferenceNumber)

	writeJSON(w, http.StatusCreated, transactionCreatedResponse{
		Transaction:    tx,
		CurrentBalance: balance,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, page, limit, err := parseListQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := s.ledger.ListTransactions(r.Context(), filter, page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}
