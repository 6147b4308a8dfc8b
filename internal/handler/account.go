package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartfare/internal/domain"
	"smartfare/internal/service"
)

// AccountHandler handles HTTP requests for wallet accounts.
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// RegisterAccountRequest is the HTTP request for account registration.
type RegisterAccountRequest struct {
	Name           string `json:"name" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	OpeningBalance int64  `json:"opening_balance"`
}

// AccountResponse is the HTTP response for account operations.
type AccountResponse struct {
	AccountID             string `json:"account_id"`
	Name                  string `json:"name"`
	Phone                 string `json:"phone"`
	Balance               int64  `json:"balance"`
	FingerprintRegistered bool   `json:"fingerprint_registered"`
}

// Register handles POST /v1/accounts/register
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	account, err := h.accountService.Register(c.Request.Context(), service.RegisterAccountRequest{
		Name:           req.Name,
		Phone:          req.Phone,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toAccountResponse(account))
}

// Get handles GET /v1/accounts/:id
func (h *AccountHandler) Get(c *gin.Context) {
	account, err := h.accountService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toAccountResponse(account))
}

// GetAll handles GET /v1/accounts
func (h *AccountHandler) GetAll(c *gin.Context) {
	accounts, err := h.accountService.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		response = append(response, toAccountResponse(account))
	}

	respondJSON(c, http.StatusOK, response)
}

// EnrollFingerprint handles POST /v1/accounts/:id/fingerprint
func (h *AccountHandler) EnrollFingerprint(c *gin.Context) {
	accountID := c.Param("id")

	if err := h.accountService.EnrollFingerprint(c.Request.Context(), accountID); err != nil {
		respondError(c, err)
		return
	}

	account, err := h.accountService.Get(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toAccountResponse(account))
}

func toAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:             account.ID,
		Name:                  account.Name,
		Phone:                 account.Phone,
		Balance:               account.Balance,
		FingerprintRegistered: account.FingerprintRegistered,
	}
}
