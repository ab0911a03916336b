package auth

// CredentialsPayload is the body of register and login requests.
type CredentialsPayload struct {
	Username string `json:"username" form:"username" mod:"trim" validate:"required,min=3,max=50"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=72"`
}

// TokenResponse is returned on login.
type TokenResponse struct {
	Token string `json:"token"`
}

// MeResponse represents the current user response.
type MeResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}
