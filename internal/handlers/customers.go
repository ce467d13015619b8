package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GalaDe/finance-link-service/internal/services/customers"
)

/*
	POST /customers
*/
func (h *HttpServer) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req customers.SignUpParams
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Customers.Register(r.Context(), req)
	if err != nil {
		h.respondWithDomainError(w, err, "sign up failed")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, user)
}

/*
	GET /users/{userID}
*/
func (h *HttpServer) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user, err := h.Customers.GetUserInfo(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondWithDomainError(w, err, "user not found")
		return
	}

	h.respondWithJSON(w, http.StatusOK, user)
}
