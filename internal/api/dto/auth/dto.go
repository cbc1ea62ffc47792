package auth

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// AuthResponse - {user, session} payload of the identity backend
type AuthResponse struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}

type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"emailVerified"`
}

type Session struct {
	ID           string `json:"id"`
	ExpiresAt    string `json:"expiresAt"` // ISO 8601, with or without zone
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// PageResponse - descriptor of an auth page for the browser
type PageResponse struct {
	Page     string `json:"page"`
	Action   string `json:"action"`
	AltPage  string `json:"alt_page"`
	Redirect string `json:"redirect"`
}
