package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sitirukayah12-del/sora2-demo/pkg/accounts"
	"github.com/sitirukayah12-del/sora2-demo/pkg/appconfig"
	"github.com/sitirukayah12-del/sora2-demo/pkg/ctxkeys"
	"github.com/sitirukayah12-del/sora2-demo/pkg/gateway"
	"github.com/sitirukayah12-del/sora2-demo/pkg/generation"
	"github.com/sitirukayah12-del/sora2-demo/pkg/ledger"
	"github.com/sitirukayah12-del/sora2-demo/pkg/logging"
	"github.com/sitirukayah12-del/sora2-demo/pkg/models"
	"github.com/sitirukayah12-del/sora2-demo/pkg/pricing"
)

// BursarMetrics holds the custom metrics for handler operations
type BursarMetrics struct {
	AuthOperations *prometheus.CounterVec
	AuthDuration   *prometheus.HistogramVec
	Charges        *prometheus.CounterVec
	Generations    *prometheus.CounterVec
	DBQueries      *prometheus.CounterVec
	DBDuration     *prometheus.HistogramVec
	DBConnections  *prometheus.GaugeVec
}

var (
	logger     logging.Logger
	metrics    *BursarMetrics
	accountSvc *accounts.Service
	bookkeeper *ledger.Ledger
	meter      *gateway.Gateway
	prices     *pricing.Store
	runtimeCfg *appconfig.Store

	videoGen  generation.Generator
	imageGen  generation.Generator
	musicGen  generation.Generator
	avatarGen generation.Generator
)

// Init wires the handler package. Must be called once before registering routes.
func Init(log logging.Logger, m *BursarMetrics, svc *accounts.Service, l *ledger.Ledger, g *gateway.Gateway, p *pricing.Store, cfg *appconfig.Store) {
	logger = log
	metrics = m
	accountSvc = svc
	bookkeeper = l
	meter = g
	prices = p
	runtimeCfg = cfg

	videoGen = &generation.VideoGenerator{Config: cfg}
	imageGen = &generation.ImageGenerator{Config: cfg}
	musicGen = &generation.MusicGenerator{Config: cfg}
	avatarGen = &generation.AvatarGenerator{Config: cfg}
}

// currentAccount re-fetches the authenticated account. The middleware has
// already validated the token; a vanished account still resolves to a 401.
func currentAccount(c *gin.Context) (models.Account, bool) {
	username := c.GetString(string(ctxkeys.KeyUsername))
	if username == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return models.Account{}, false
	}

	start := time.Now()
	account, err := bookkeeper.FindAccount(c.Request.Context(), username)
	if metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.DBQueries.WithLabelValues("find_account", status).Inc()
		metrics.DBDuration.WithLabelValues("find_account").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		} else {
			logger.WithError(err).Error("Failed to resolve account")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal error"})
		}
		return models.Account{}, false
	}
	return account, true
}

// writeError maps service errors onto the HTTP surface. Authentication
// failures stay uniform regardless of cause.
func writeError(c *gin.Context, err error) {
	var validation *accounts.ValidationError
	var insufficient *ledger.InsufficientBalanceError
	var upstream *generation.UpstreamError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: validation.Error()})
	case errors.Is(err, ledger.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "Username already exists"})
	case errors.Is(err, ledger.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, models.ErrorResponse{Error: "Email already registered"})
	case errors.Is(err, accounts.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials"})
	case errors.Is(err, accounts.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusPaymentRequired, models.ErrorResponse{
			Error:     "Insufficient balance",
			Required:  &insufficient.Required,
			Available: &insufficient.Available,
		})
	case errors.As(err, &upstream):
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: upstream.Detail})
	case errors.Is(err, ledger.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Account not found"})
	case errors.Is(err, pricing.ErrUnknownOperation):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Unknown operation"})
	default:
		logger.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal error"})
	}
}

// Register handles account registration
func Register(c *gin.Context) {
	start := time.Now()
	defer func() {
		if metrics != nil {
			metrics.AuthDuration.WithLabelValues("register").Observe(time.Since(start).Seconds())
		}
	}()

	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if metrics != nil {
			metrics.AuthOperations.WithLabelValues("register", "error").Inc()
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	var email *string
	if req.Email != "" {
		email = &req.Email
	}

	account, err := accountSvc.Register(c.Request.Context(), req.Username, req.Password, email)
	if err != nil {
		if metrics != nil {
			metrics.AuthOperations.WithLabelValues("register", "error").Inc()
		}
		writeError(c, err)
		return
	}

	logger.WithFields(logging.Fields{
		"username": account.Username,
		"balance":  account.Balance,
	}).Info("Account registered")

	if metrics != nil {
		metrics.AuthOperations.WithLabelValues("register", "success").Inc()
	}

	c.JSON(http.StatusCreated, account.Summary())
}

// Token handles the password-grant token exchange
func Token(c *gin.Context) {
	start := time.Now()
	defer func() {
		if metrics != nil {
			metrics.AuthDuration.WithLabelValues("login").Observe(time.Since(start).Seconds())
		}
	}()

	var req models.TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		if metrics != nil {
			metrics.AuthOperations.WithLabelValues("login", "error").Inc()
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	token, err := accountSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if metrics != nil {
			metrics.AuthOperations.WithLabelValues("login", "failure").Inc()
		}
		writeError(c, err)
		return
	}

	if metrics != nil {
		metrics.AuthOperations.WithLabelValues("login", "success").Inc()
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// GetMe returns the authenticated account summary
func GetMe(c *gin.Context) {
	account, ok := currentAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, account.Summary())
}
