package handlers

import (
	"errors"
	"net/http"

	"github.com/GalaDe/finance-link-service/internal/domain"
	"github.com/GalaDe/finance-link-service/internal/services/linking"
)

/*

			Endpoint            | 				Description
| ----------------------------- | ------------------------------------------------------- |
| `POST /link/token`            | Create a link token for the frontend                    |
| `POST /link/exchange`         | Exchange a public token and link the bank account       |

*/

type CreateLinkTokenRequest struct {
	UserID string `json:"user_id"`
}

type ExchangeTokenRequest struct {
	PublicToken      string `json:"public_token"`
	UserID           string `json:"user_id"`
	DwollaCustomerID string `json:"dwolla_customer_id"`
}

/*
	POST /link/token

	Link token is short lived and single use per session.
*/
func (h *HttpServer) CreateLinkToken(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		h.respondWithError(w, http.StatusBadRequest, "missing user_id")
		return
	}

	token, err := h.LinkTokens.CreateLinkToken(r.Context(), req.UserID, h.ClientName)
	if err != nil {
		h.respondWithDomainError(w, err, "failed to create link token")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]string{"link_token": token})
}

/*
	POST /link/exchange

	1. Plaid Link hands the frontend a public_token
	2. The frontend posts it here with the user id
	3. The token is exchanged, a funding source is created on Dwolla and the
	   bank account record is stored

	When dwolla_customer_id is omitted it is taken from the user's profile.
*/
func (h *HttpServer) ExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	var req ExchangeTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PublicToken == "" || req.UserID == "" {
		h.respondWithError(w, http.StatusBadRequest, "missing public_token or user_id")
		return
	}

	if req.DwollaCustomerID == "" {
		user, err := h.Customers.GetUserInfo(r.Context(), req.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				h.respondWithError(w, http.StatusNotFound, "user not registered")
				return
			}
			h.respondWithDomainError(w, err, "linking failed")
			return
		}
		req.DwollaCustomerID = user.DwollaCustomerID
	}

	res, err := h.Linker.Link(r.Context(), linking.LinkRequest{
		PublicToken:      req.PublicToken,
		UserID:           req.UserID,
		DwollaCustomerID: req.DwollaCustomerID,
	})
	if err != nil {
		h.respondWithDomainError(w, err, "linking failed")
		return
	}

	h.respondWithJSON(w, http.StatusOK, res)
}
