package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitirukayah12-del/sora2-demo/pkg/appconfig"
	"github.com/sitirukayah12-del/sora2-demo/pkg/logging"
	"github.com/sitirukayah12-del/sora2-demo/pkg/models"
)

// AdminLogin confirms the shared secret. The gate itself lives in the admin
// middleware; this endpoint only exists so the admin frontend can probe it.
func AdminLogin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Login successful"})
}

// GetConfig returns the runtime configuration with key material redacted
func GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, runtimeCfg.Snapshot().Redacted())
}

// UpdateConfig replaces the runtime configuration
func UpdateConfig(c *gin.Context) {
	var req appconfig.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	runtimeCfg.Update(req)
	logger.WithField("mock_mode", req.MockMode).Info("Runtime configuration updated")

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"config": runtimeCfg.Snapshot().Redacted(),
	})
}

// GetPrices lists the pricing table
func GetPrices(c *gin.Context) {
	list, err := prices.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prices": list})
}

// UpdatePrice sets the credit cost of one metered operation
func UpdatePrice(c *gin.Context) {
	operation := c.Param("operation")

	var req models.PriceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := prices.SetPrice(c.Request.Context(), operation, req.Credits); err != nil {
		writeError(c, err)
		return
	}

	logger.WithFields(logging.Fields{
		"operation": operation,
		"credits":   req.Credits,
	}).Info("Price updated")

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ListAccounts returns every account summary
func ListAccounts(c *gin.Context) {
	all, err := bookkeeper.ListAccounts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	summaries := make([]models.AccountSummary, 0, len(all))
	for _, a := range all {
		summaries = append(summaries, a.Summary())
	}
	c.JSON(http.StatusOK, gin.H{"accounts": summaries})
}

// OverrideBalance sets an absolute balance on an account. This bypasses the
// ledger on purpose: no transaction entry records the change.
func OverrideBalance(c *gin.Context) {
	username := c.Param("username")

	var req models.BalanceOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	account, err := bookkeeper.FindAccount(c.Request.Context(), username)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := bookkeeper.OverrideBalance(c.Request.Context(), account.ID, req.Balance); err != nil {
		writeError(c, err)
		return
	}

	logger.WithFields(logging.Fields{
		"username": username,
		"balance":  req.Balance,
	}).Warn("Account balance overridden by admin")

	c.JSON(http.StatusOK, gin.H{"status": "success", "balance": req.Balance})
}
