package server

import (
	"encoding/json"
	"net/http"

	"foodbridge/internal/engine"
	"foodbridge/internal/store"

	"github.com/alexedwards/flow"
)

func (s *Service) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {

	userID, err := s.userIDFromContext(r.Context())
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in engine.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.ActingUser = userID

	txn, err := s.engine.Create(r.Context(), in)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, txn)
}

func (s *Service) handleApproveTransaction(w http.ResponseWriter, r *http.Request) {

	userID, err := s.userIDFromContext(r.Context())
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	transactionID := flow.Param(r.Context(), "id")

	result, err := s.engine.Approve(r.Context(), transactionID, userID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *Service) handleRejectTransaction(w http.ResponseWriter, r *http.Request) {

	userID, err := s.userIDFromContext(r.Context())
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	transactionID := flow.Param(r.Context(), "id")

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	txn, err := s.engine.Reject(r.Context(), transactionID, body.Reason, userID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, txn)
}

func (s *Service) handleGetTransaction(w http.ResponseWriter, r *http.Request) {

	transactionID := flow.Param(r.Context(), "id")

	txn, err := s.transactions.Transaction(r.Context(), transactionID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, txn)
}

func (s *Service) handleListTransactions(w http.ResponseWriter, r *http.Request) {

	var filter store.TransactionFilter
	if err := decoder.Decode(&filter, r.URL.Query()); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid query parameters")
		return
	}

	txns, err := s.transactions.Transactions(r.Context(), filter)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, txns)
}

func (s *Service) handleTransactionEvents(w http.ResponseWriter, r *http.Request) {

	transactionID := flow.Param(r.Context(), "id")

	// 404 for unknown ids rather than an empty trail
	if _, err := s.transactions.Transaction(r.Context(), transactionID); err != nil {
		s.respondDomainError(w, err)
		return
	}

	events, err := s.events.EventsByTransaction(r.Context(), transactionID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, events)
}
