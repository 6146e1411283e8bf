package dto

// LoginRequest represents a user login attempt
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Message string     `json:"message"`
	User    UserDTO    `json:"user"`
	Session SessionDTO `json:"session"`
}

// RefreshTokenRequest represents a token refresh attempt
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse represents a successful token refresh
type RefreshTokenResponse struct {
	Message string     `json:"message"`
	Session SessionDTO `json:"session"`
}

// UserDTO is the user representation returned to clients
type UserDTO struct {
	ID        uint   `json:"id"`
	UUID      string `json:"uuid"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	IsActive  *bool  `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// SessionDTO carries issued tokens
type SessionDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// AdminCaptchaChallengeResponse carries a rotate captcha challenge
type AdminCaptchaChallengeResponse struct {
	ChallengeID       string `json:"challenge_id"`
	MasterImageBase64 string `json:"master_image_base64"`
	ThumbImageBase64  string `json:"thumb_image_base64"`
}

// AdminLoginRequest represents an admin login attempt, captcha-gated
type AdminLoginRequest struct {
	Username    string  `json:"username" validate:"required,max=255"`
	Password    string  `json:"password" validate:"required,min=8,max=128"`
	ChallengeID string  `json:"challenge_id" validate:"required"`
	Angle       float64 `json:"angle" validate:"required"`
}

// AdminLoginResponse represents a successful admin login
type AdminLoginResponse struct {
	Message string     `json:"message"`
	AdminID uint       `json:"admin_id"`
	Session SessionDTO `json:"session"`
}
