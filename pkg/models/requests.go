package models

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
}

// TokenRequest represents the password-grant token exchange. Fields bind
// from form data to match the standard grant shape.
type TokenRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// TokenResponse is the successful login response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RechargeRequest converts a monetary amount into credits
type RechargeRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// RechargeResponse reports the credits minted and the new balance
type RechargeResponse struct {
	CreditsAdded float64 `json:"credits_added"`
	Balance      float64 `json:"balance"`
}

// VideoRequest is the generate-video payload
type VideoRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	Size     string `json:"size"`
	Duration int    `json:"duration"`
}

// ImageRequest is the generate-image payload
type ImageRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Size   string `json:"size"`
}

// MusicRequest is the generate-music payload
type MusicRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	Duration int    `json:"duration"`
}

// AvatarRequest is the generate-avatar payload
type AvatarRequest struct {
	Prompt string `json:"prompt"`
	Text   string `json:"text" binding:"required"`
}

// BalanceOverrideRequest sets an absolute balance on an account
type BalanceOverrideRequest struct {
	Balance float64 `json:"balance" binding:"gte=0"`
}

// PriceUpdateRequest sets the credit price of a metered operation
type PriceUpdateRequest struct {
	Credits float64 `json:"credits" binding:"gte=0"`
}

// ErrorResponse is the uniform error body
type ErrorResponse struct {
	Error     string   `json:"error"`
	Required  *float64 `json:"required,omitempty"`
	Available *float64 `json:"available,omitempty"`
}
