package screen

import (
	"context"

	"reportit/backend/internal/config"
	"reportit/backend/internal/models"
)

// Auth drives the sign-in and sign-up forms.
type Auth struct {
	*Screen[*models.AuthSession]
	auth Authenticator
}

func NewAuth(ctx context.Context, a Authenticator, deps Deps) *Auth {
	return &Auth{
		Screen: NewIdle[*models.AuthSession](ctx, NameAuth, config.MsgSignInFailed, deps),
		auth:   a,
	}
}

func (a *Auth) SignUp(ctx context.Context, email, password, name string) State[*models.AuthSession] {
	return a.LoadWithMessage(ctx, config.MsgSignUpFailed, func(ctx context.Context) (*models.AuthSession, error) {
		return a.auth.SignUp(ctx, email, password, name)
	})
}

func (a *Auth) SignIn(ctx context.Context, email, password string) State[*models.AuthSession] {
	return a.LoadWithMessage(ctx, config.MsgSignInFailed, func(ctx context.Context) (*models.AuthSession, error) {
		return a.auth.SignIn(ctx, email, password)
	})
}
