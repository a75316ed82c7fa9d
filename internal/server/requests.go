package server

import (
	"encoding/json"
	"net/http"

	"foodbridge/pkg/types"

	"github.com/alexedwards/flow"
)

type requestInput struct {
	Category    types.Category `json:"category"`
	Description *string        `json:"description"`
	Products    []lineInput    `json:"products"`
	Meals       []lineInput    `json:"meals"`
}

func (s *Service) handleCreateRequest(w http.ResponseWriter, r *http.Request) {

	userID, err := s.userIDFromContext(r.Context())
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in requestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request := &types.RequestNeed{
		RecipientID: userID,
		Category:    in.Category,
		Description: in.Description,
	}

	switch in.Category {
	case types.CategoryPackagedProducts:
		lines, err := buildLines(in.Products)
		if err != nil {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		request.RequestedProducts = lines
	case types.CategoryPreparedMeals:
		lines, err := buildLines(in.Meals)
		if err != nil {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		request.RequestedMeals = lines
		for _, line := range lines {
			request.NumberOfMeals += line.Quantity
		}
		request.OriginalMeals = request.NumberOfMeals
	default:
		s.respondError(w, http.StatusUnprocessableEntity, "unknown category")
		return
	}

	if err := s.requests.CreateRequest(r.Context(), request); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, request)
}

func (s *Service) handleGetRequest(w http.ResponseWriter, r *http.Request) {

	request, err := s.requests.Request(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, request)
}

func (s *Service) handleListRequests(w http.ResponseWriter, r *http.Request) {

	if recipientID := r.URL.Query().Get("recipient_id"); recipientID != "" {
		requests, err := s.requests.RequestsByRecipient(r.Context(), recipientID)
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, requests)
		return
	}

	status := types.EntityStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = types.StatusOpen
	}

	requests, err := s.requests.RequestsByStatus(r.Context(), status)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, requests)
}

func (s *Service) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {

	userID, err := s.userIDFromContext(r.Context())
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	requestID := flow.Param(r.Context(), "id")

	request, err := s.requests.Request(r.Context(), requestID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	if request.RecipientID != userID {
		s.respondDomainError(w, types.ErrUnauthorized)
		return
	}

	if request.Status != types.StatusOpen {
		s.respondError(w, http.StatusConflict, "request has committed allocations")
		return
	}
	pending, err := s.transactions.PendingByEntity(r.Context(), requestID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if len(pending) > 0 {
		s.respondError(w, http.StatusConflict, "request has pending transactions")
		return
	}

	var in requestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request.Description = in.Description

	switch request.Category {
	case types.CategoryPackagedProducts:
		if in.Products != nil {
			lines, err := buildLines(in.Products)
			if err != nil {
				s.respondError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			request.RequestedProducts = lines
		}
	case types.CategoryPreparedMeals:
		if in.Meals != nil {
			lines, err := buildLines(in.Meals)
			if err != nil {
				s.respondError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			request.RequestedMeals = lines
			request.NumberOfMeals = 0
			for _, line := range lines {
				request.NumberOfMeals += line.Quantity
			}
			request.OriginalMeals = request.NumberOfMeals
		}
	}

	if err := s.requests.UpdateRequest(r.Context(), requestID, request); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, request)
}

func (s *Service) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {

	userID, err := s.userIDFromContext(r.Context())
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	requestID := flow.Param(r.Context(), "id")

	request, err := s.requests.Request(r.Context(), requestID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	if request.RecipientID != userID {
		s.respondDomainError(w, types.ErrUnauthorized)
		return
	}

	err = s.engine.InvalidateForEntity(r.Context(), requestID, "request was deleted by its owner", userID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	if err := s.requests.DeleteRequest(r.Context(), requestID); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"deleted": requestID})
}
