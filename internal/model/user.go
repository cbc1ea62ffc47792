package model

type User struct {
	ID            string
	Email         string
	Name          string
	EmailVerified bool
}

// Credentials - what the browser submits on sign-in and sign-up
type Credentials struct {
	Email    string
	Password string
	Name     string
}
