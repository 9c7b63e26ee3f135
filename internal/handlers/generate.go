package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sitirukayah12-del/sora2-demo/pkg/generation"
	"github.com/sitirukayah12-del/sora2-demo/pkg/logging"
	"github.com/sitirukayah12-del/sora2-demo/pkg/models"
	"github.com/sitirukayah12-del/sora2-demo/pkg/pricing"
)

// runMetered charges the operation's price, then invokes the generator. The
// order matters: the debit commits first, and a generator failure afterwards
// is surfaced without reversing the charge.
func runMetered(c *gin.Context, operation, prompt string, opts map[string]interface{}, gen generation.Generator) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}

	authz, err := meter.Charge(c.Request.Context(), account, operation)
	if err != nil {
		if metrics != nil {
			metrics.Charges.WithLabelValues(operation, "rejected").Inc()
		}
		writeError(c, err)
		return
	}
	if metrics != nil {
		metrics.Charges.WithLabelValues(operation, "charged").Inc()
	}

	result, err := gen.Generate(c.Request.Context(), prompt, opts)
	if err != nil {
		logger.WithError(err).WithFields(logging.Fields{
			"operation": operation,
			"charge_id": authz.ID,
			"cost":      authz.Cost,
		}).Error("Generation failed after charge")
		if metrics != nil {
			metrics.Generations.WithLabelValues(operation, "error").Inc()
		}
		writeError(c, err)
		return
	}

	if metrics != nil {
		metrics.Generations.WithLabelValues(operation, "success").Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    result.Status,
		"video_url": result.VideoURL,
		"image_url": result.ImageURL,
		"audio_url": result.AudioURL,
		"message":   result.Message,
		"cost":      authz.Cost,
		"balance":   authz.Balance,
	})
}

// GenerateVideo handles the metered text-to-video endpoint
func GenerateVideo(c *gin.Context) {
	var req models.VideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	runMetered(c, pricing.OpGenerateVideo, req.Prompt, map[string]interface{}{
		"size":     req.Size,
		"duration": req.Duration,
	}, videoGen)
}

// GenerateImage handles the metered text-to-image endpoint
func GenerateImage(c *gin.Context) {
	var req models.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	runMetered(c, pricing.OpGenerateImage, req.Prompt, map[string]interface{}{
		"size": req.Size,
	}, imageGen)
}

// GenerateMusic handles the metered text-to-music endpoint
func GenerateMusic(c *gin.Context) {
	var req models.MusicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	runMetered(c, pricing.OpGenerateMusic, req.Prompt, map[string]interface{}{
		"duration": req.Duration,
	}, musicGen)
}

// GenerateAvatar handles the metered talking-avatar endpoint
func GenerateAvatar(c *gin.Context) {
	var req models.AvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	runMetered(c, pricing.OpGenerateAvatar, req.Prompt, map[string]interface{}{
		"text": req.Text,
	}, avatarGen)
}
