package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

/*

| Endpoint                         | Description                               |
| -------------------------------- | ----------------------------------------- |
| `GET /banks?user_id=`            | List a user's linked bank accounts        |
| `GET /banks/{id}`                | Fetch one bank account record             |
| `GET /banks/account/{accountID}` | Fetch the record for an aggregator account |

*/

func (h *HttpServer) GetBanks(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		h.respondWithError(w, http.StatusBadRequest, "missing user_id")
		return
	}

	banks, err := h.Banks.GetBanks(r.Context(), userID)
	if err != nil {
		h.respondWithDomainError(w, err, "failed to retrieve banks")
		return
	}

	h.respondWithJSON(w, http.StatusOK, banks)
}

func (h *HttpServer) GetBank(w http.ResponseWriter, r *http.Request) {
	bank, err := h.Banks.GetBank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondWithDomainError(w, err, "bank not found")
		return
	}

	h.respondWithJSON(w, http.StatusOK, bank)
}

func (h *HttpServer) GetBankByAccountID(w http.ResponseWriter, r *http.Request) {
	bank, err := h.Banks.GetBankByAccountID(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		h.respondWithDomainError(w, err, "bank not found")
		return
	}

	h.respondWithJSON(w, http.StatusOK, bank)
}
