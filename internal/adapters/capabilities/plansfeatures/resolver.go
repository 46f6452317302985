package plansfeatures

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-records/internal/ports/capabilities"

	"github.com/patrickmn/go-cache"
)

// Resolver implementa capabilities.CapabilitiesResolver. Cachea el mapa de
// features por usuario durante cacheTTL.
type Resolver struct {
	client   *Client
	allowAll bool
	cache    *cache.Cache
}

// NewResolver: allowAll (modo dev) responde true sin llamar a upstream.
func NewResolver(client *Client, allowAll bool, cacheTTL time.Duration) *Resolver {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Resolver{
		client:   client,
		allowAll: allowAll,
		cache:    cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (r *Resolver) HasFeature(ctx context.Context, in capabilities.CapabilityCheck) (bool, error) {
	feature := strings.TrimSpace(string(in.Feature))
	if feature == "" {
		return false, errors.New("feature required")
	}
	if r.allowAll {
		return true, nil
	}

	caps, err := r.Resolve(ctx, in.UserID)
	if err != nil {
		return false, err
	}
	return caps[feature], nil
}

// Resolve devuelve el mapa completo de capabilities para userID.
func (r *Resolver) Resolve(ctx context.Context, userID string) (map[string]bool, error) {
	if r.allowAll {
		return map[string]bool{"*": true}, nil
	}
	if r.client == nil || !r.client.IsConfigured() {
		return nil, ErrPlansNotConfigured
	}
	if v, ok := r.cache.Get(userID); ok {
		return v.(map[string]bool), nil
	}

	resp, err := r.client.GetCapabilities(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(userID, resp.Capabilities)
	return resp.Capabilities, nil
}
