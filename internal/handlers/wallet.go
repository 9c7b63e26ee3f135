package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitirukayah12-del/sora2-demo/pkg/billing"
	"github.com/sitirukayah12-del/sora2-demo/pkg/models"
)

// Recharge converts a monetary amount into credits at the fixed exchange
// rate and appends one recharge entry. No payment provider is involved; the
// amount is taken at face value.
func Recharge(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	var req models.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	credits := billing.CreditsForAmount(req.Amount)
	description := fmt.Sprintf("Recharge %.2f %s", req.Amount, billing.DefaultCurrency())

	balance, err := bookkeeper.Credit(c.Request.Context(), account.ID, req.Amount, credits, models.TransactionRecharge, description)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RechargeResponse{
		CreditsAdded: credits,
		Balance:      balance,
	})
}

// GetTransactions returns the caller's ledger entries, newest first
func GetTransactions(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	entries, err := bookkeeper.Transactions(c.Request.Context(), account.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []models.Transaction{}
	}

	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}
