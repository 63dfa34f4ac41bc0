package auth

import (
	"context"

	"github.com/yourname/moodtracker/internal"
)

type Provider interface {
	ValidateTokenLocal(ctx context.Context, token string) (*internal.User, error)
	ValidateTokenRemote(ctx context.Context, token string) (*internal.User, error)
}
