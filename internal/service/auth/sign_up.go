package auth

import (
	"context"
	"strings"

	"taskboard/internal/model"
)

// SignUp registers a new account and signs it in, with the same failure
// handling as SignIn
func (s *Store) SignUp(ctx context.Context, email, password, name string) ([]string, error) {
	creds := model.Credentials{
		Email:    strings.TrimSpace(email),
		Password: password,
		Name:     strings.TrimSpace(name),
	}
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	return s.authenticate(ctx, creds, s.deps.Gateway.SignUp, msgRegistrationFailed)
}
