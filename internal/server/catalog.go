package server

import (
	"net/http"
)

func (s *Service) handleListProducts(w http.ResponseWriter, r *http.Request) {

	products, err := s.catalog.Products(r.Context())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, products)
}

func (s *Service) handleListMeals(w http.ResponseWriter, r *http.Request) {

	meals, err := s.catalog.Meals(r.Context())
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, meals)
}
