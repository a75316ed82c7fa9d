package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"foodbridge/pkg/types"

	"github.com/alexedwards/flow"
)

type lineInput struct {
	Ref      string `json:"ref"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type donationInput struct {
	Category    types.Category `json:"category"`
	Description *string        `json:"description"`
	Products    []lineInput    `json:"products"`
	Meals       []lineInput    `json:"meals"`
}

// buildLines turns caller input into fresh supply/demand lines with the
// remaining counter primed at the original quantity.
func buildLines(inputs []lineInput) (types.LineItems, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("at least one line is required")
	}

	seen := make(map[string]bool, len(inputs))
	lines := make(types.LineItems, 0, len(inputs))
	for _, in := range inputs {
		if in.Ref == "" {
			return nil, fmt.Errorf("line ref is required")
		}
		if seen[in.Ref] {
			return nil, fmt.Errorf("duplicate line ref %q", in.Ref)
		}
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("line %q quantity must be positive", in.Ref)
		}
		seen[in.Ref] = true
		lines = append(lines, types.LineItem{
			Ref:       in.Ref,
			Name:      in.Name,
			Quantity:  in.Quantity,
			Remaining: in.Quantity,
		})
	}

	return lines, nil
}

func (s *Service) handleCreateDonation(w http.ResponseWriter, r *http.Request) {

	userID, err := s.userIDFromContext(r.Context())
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var in donationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	donation := &types.Donation{
		DonorID:     userID,
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
		donation.Products = lines
	case types.CategoryPreparedMeals:
		lines, err := buildLines(in.Meals)
		if err != nil {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		donation.Meals = lines
		for _, line := range lines {
			donation.NumberOfMeals += line.Quantity
		}
		donation.OriginalMeals = donation.NumberOfMeals
	default:
		s.respondError(w, http.StatusUnprocessableEntity, "unknown category")
		return
	}

	if err := s.donations.CreateDonation(r.Context(), donation); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, donation)
}

func (s *Service) handleGetDonation(w http.ResponseWriter, r *http.Request) {

	donation, err := s.donations.Donation(r.Context(), flow.Param(r.Context(), "id"))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, donation)
}

func (s *Service) handleListDonations(w http.ResponseWriter, r *http.Request) {

	if donorID := r.URL.Query().Get("donor_id"); donorID != "" {
		donations, err := s.donations.DonationsByDonor(r.Context(), donorID)
		if err != nil {
			s.respondDomainError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, donations)
		return
	}

	status := types.EntityStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = types.StatusOpen
	}

	donations, err := s.donations.DonationsByStatus(r.Context(), status)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, donations)
}

func (s *Service) handleUpdateDonation(w http.ResponseWriter, r *http.Request) {

	userID, err := s.userIDFromContext(r.Context())
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	donationID := flow.Param(r.Context(), "id")

	donation, err := s.donations.Donation(r.Context(), donationID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	if donation.DonorID != userID {
		s.respondDomainError(w, types.ErrUnauthorized)
		return
	}

	// Quantity edits would orphan committed allocations; only untouched
	// donations may be reshaped.
	if donation.Status != types.StatusOpen {
		s.respondError(w, http.StatusConflict, "donation has committed allocations")
		return
	}
	pending, err := s.transactions.PendingByEntity(r.Context(), donationID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	if len(pending) > 0 {
		s.respondError(w, http.StatusConflict, "donation has pending transactions")
		return
	}

	var in donationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	donation.Description = in.Description

	switch donation.Category {
	case types.CategoryPackagedProducts:
		if in.Products != nil {
			lines, err := buildLines(in.Products)
			if err != nil {
				s.respondError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			donation.Products = lines
		}
	case types.CategoryPreparedMeals:
		if in.Meals != nil {
			lines, err := buildLines(in.Meals)
			if err != nil {
				s.respondError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			donation.Meals = lines
			donation.NumberOfMeals = 0
			for _, line := range lines {
				donation.NumberOfMeals += line.Quantity
			}
			donation.OriginalMeals = donation.NumberOfMeals
		}
	}

	if err := s.donations.UpdateDonation(r.Context(), donationID, donation); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, donation)
}

func (s *Service) handleDeleteDonation(w http.ResponseWriter, r *http.Request) {

	userID, err := s.userIDFromContext(r.Context())
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	donationID := flow.Param(r.Context(), "id")

	donation, err := s.donations.Donation(r.Context(), donationID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	if donation.DonorID != userID {
		s.respondDomainError(w, types.ErrUnauthorized)
		return
	}

	// Outstanding pending transactions are invalidated before the cascade.
	err = s.engine.InvalidateForEntity(r.Context(), donationID, "donation was deleted by its owner", userID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	if err := s.donations.DeleteDonation(r.Context(), donationID); err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"deleted": donationID})
}
