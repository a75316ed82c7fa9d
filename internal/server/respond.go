package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"foodbridge/pkg/types"
)

type errorBody struct {
	Error string    `json:"error"`
	Line  *lineInfo `json:"line,omitempty"`
}

type lineInfo struct {
	Ref             string `json:"ref"`
	Quantity        int    `json:"quantity"`
	SupplyRemaining int    `json:"supply_remaining"`
	DemandRemaining int    `json:"demand_remaining"`
}

func (s *Service) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, errorBody{Error: msg})
}

// respondDomainError maps the engine's error taxonomy onto HTTP statuses,
// carrying the offending line detail where there is one.
func (s *Service) respondDomainError(w http.ResponseWriter, err error) {

	var exceeds *types.QuantityExceedsAvailableError
	var stale *types.AllocationStaleError
	var missing *types.LineNotFoundError

	switch {
	case errors.Is(err, types.ErrDonationNotFound),
		errors.Is(err, types.ErrRequestNotFound),
		errors.Is(err, types.ErrTransactionNotFound),
		errors.Is(err, types.ErrUserNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, types.ErrInvalidState):
		s.respondError(w, http.StatusConflict, err.Error())

	case errors.Is(err, types.ErrUnauthorized):
		s.respondError(w, http.StatusForbidden, err.Error())

	case errors.Is(err, types.ErrMissingReason),
		errors.Is(err, types.ErrCategoryMismatch),
		errors.Is(err, types.ErrEmptyAllocation):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())

	case errors.As(err, &stale):
		s.respondJSON(w, http.StatusConflict, errorBody{
			Error: err.Error(),
			Line: &lineInfo{
				Ref:             stale.Ref,
				Quantity:        stale.Allocated,
				SupplyRemaining: stale.SupplyRemaining,
				DemandRemaining: stale.DemandRemaining,
			},
		})

	case errors.As(err, &exceeds):
		s.respondJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error: err.Error(),
			Line: &lineInfo{
				Ref:             exceeds.Ref,
				Quantity:        exceeds.Requested,
				SupplyRemaining: exceeds.SupplyRemaining,
				DemandRemaining: exceeds.DemandRemaining,
			},
		})

	case errors.As(err, &missing):
		s.respondJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error: err.Error(),
			Line:  &lineInfo{Ref: missing.Ref},
		})

	default:
		s.logger.WithError(err).Error("unhandled error")
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
