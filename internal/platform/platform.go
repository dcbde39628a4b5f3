package platform

import (
	"context"
	"fmt"

	"github.com/growthlens/growthlens/internal/domain"
)

const (
	MinPosts = 10
	MaxPosts = 100
)

// Adapter normalizes one platform's API into the common Post schema. The
// caller is responsible for refreshing the account token beforehand; the
// adapter assumes a currently valid access token.
//
//go:generate go run go.uber.org/mock/mockgen -source=platform.go -destination=mocks/mock.go
type Adapter interface {
	// FetchPosts paginates the platform API until maxPosts are accumulated
	// or the source is exhausted, then truncates to exactly maxPosts.
	FetchPosts(ctx context.Context, account domain.ConnectedAccount, maxPosts int) ([]domain.Post, error)

	// GetProfile returns the profile snapshot for the token's owner.
	GetProfile(ctx context.Context, token string) (domain.ProfileSnapshot, error)
}

// APIError carries the upstream status and message of a non-2xx platform
// response. The orchestrator treats it as job-fatal.
type APIError struct {
	Platform   domain.Platform
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Platform, e.StatusCode, e.Message)
}

// ClampMaxPosts bounds maxPosts to [MinPosts, MaxPosts].
func ClampMaxPosts(n int) int {
	if n < MinPosts {
		return MinPosts
	}
	if n > MaxPosts {
		return MaxPosts
	}
	return n
}

// Registry routes a platform to its adapter. Facebook pages are read through
// the Instagram Graph adapter, which speaks the same API family.
type Registry struct {
	adapters map[domain.Platform]Adapter
}

func NewRegistry(tiktok, instagram, youtube Adapter) *Registry {
	return &Registry{
		adapters: map[domain.Platform]Adapter{
			domain.PlatformTikTok:    tiktok,
			domain.PlatformInstagram: instagram,
			domain.PlatformFacebook:  instagram,
			domain.PlatformYouTube:   youtube,
		},
	}
}

func (r *Registry) For(p domain.Platform) (Adapter, error) {
	a, ok := r.adapters[p]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", p)
	}
	return a, nil
}
