package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartfare/internal/service"
)

// DebitHandler handles HTTP requests for wallet debits.
type DebitHandler struct {
	walletService *service.WalletService
}

// NewDebitHandler creates a new DebitHandler.
func NewDebitHandler(walletService *service.WalletService) *DebitHandler {
	return &DebitHandler{walletService: walletService}
}

// DebitResponse is the HTTP response for debit lookups.
type DebitResponse struct {
	DebitID   string `json:"debit_id"`
	TripID    string `json:"trip_id"`
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// Get handles GET /v1/debits/:id
func (h *DebitHandler) Get(c *gin.Context) {
	debit, err := h.walletService.GetDebit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, DebitResponse{
		DebitID:   debit.ID,
		TripID:    debit.TripID,
		AccountID: debit.AccountID,
		Amount:    debit.Amount,
		Status:    string(debit.Status),
		CreatedAt: debit.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
