package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/GalaDe/finance-link-service/internal/services/transfer"
)

/*

| Endpoint          | Description                                                  |
| ----------------- | ------------------------------------------------------------ |
| `POST /transfers` | Move money between two funding sources (ACH through Dwolla)  |

*/

// CreateTransferRequest names the two sides either by funding source URL or
// by the sender's bank id and the receiver's shareable id.
type CreateTransferRequest struct {
	SourceFundingSourceURL      string          `json:"source_funding_source_url"`
	DestinationFundingSourceURL string          `json:"destination_funding_source_url"`
	SenderBankID                string          `json:"sender_bank_id"`
	ReceiverShareableID         string          `json:"receiver_shareable_id"`
	Amount                      decimal.Decimal `json:"amount"`
}

/*
	POST /transfers
*/
func (h *HttpServer) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req CreateTransferRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		res *transfer.Result
		err error
	)
	if req.SenderBankID != "" || req.ReceiverShareableID != "" {
		res, err = h.Transfers.TransferBetweenAccounts(r.Context(), req.SenderBankID, req.ReceiverShareableID, req.Amount)
	} else {
		res, err = h.Transfers.Transfer(r.Context(), transfer.Request{
			SourceFundingSourceURL:      req.SourceFundingSourceURL,
			DestinationFundingSourceURL: req.DestinationFundingSourceURL,
			Amount:                      req.Amount,
		})
	}
	if err != nil {
		h.respondWithDomainError(w, err, "transfer failed")
		return
	}

	h.respondWithJSON(w, http.StatusCreated, res)
}
