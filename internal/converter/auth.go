package converter

import (
	dto "taskboard/internal/api/dto/auth"
	"taskboard/internal/model"
)

func ToSignInRequest(creds model.Credentials) dto.SignInRequest {
	return dto.SignInRequest{
		Email:    creds.Email,
		Password: creds.Password,
	}
}

func ToSignUpRequest(creds model.Credentials) dto.SignUpRequest {
	return dto.SignUpRequest{
		Email:    creds.Email,
		Password: creds.Password,
		Name:     creds.Name,
	}
}

func SignInRequestToCredentials(r dto.SignInRequest) model.Credentials {
	return model.Credentials{
		Email:    r.Email,
		Password: r.Password,
	}
}

func SignUpRequestToCredentials(r dto.SignUpRequest) model.Credentials {
	return model.Credentials{
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
	}
}

// ToAuthState converts a backend payload. ok is false unless user, session
// and access token are all present.
func ToAuthState(resp dto.AuthResponse) (state model.AuthState, ok bool) {
	if resp.User == nil || resp.Session == nil || resp.Session.AccessToken == "" {
		return model.AuthState{}, false
	}

	return model.AuthState{
		User: &model.User{
			ID:            resp.User.ID,
			Email:         resp.User.Email,
			Name:          resp.User.Name,
			EmailVerified: resp.User.EmailVerified,
		},
		Session: &model.Session{
			ID:           resp.Session.ID,
			ExpiresAt:    parseTimestamp(resp.Session.ExpiresAt),
			AccessToken:  resp.Session.AccessToken,
			RefreshToken: resp.Session.RefreshToken,
		},
	}, true
}
