package tokens

import (
	"context"

	"github.com/growthlens/growthlens/internal/domain"
)

// Manager owns the OAuth token lifecycle for connected accounts. Adapter
// callers must run EnsureFresh before any platform call.
//
//go:generate go run go.uber.org/mock/mockgen -source=tokens.go -destination=mocks/mock.go
type Manager interface {
	// EnsureFresh returns the account with a currently valid access token,
	// refreshing and persisting new token material first when the token is
	// inside the expiry buffer. A fresh token performs zero network calls.
	EnsureFresh(ctx context.Context, account domain.ConnectedAccount) (domain.ConnectedAccount, error)
}
