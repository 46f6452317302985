package plansfeatures

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pet-records/internal/ports/capabilities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_AllowAll(t *testing.T) {
	r := NewResolver(nil, true, time.Minute)
	ok, err := r.HasFeature(context.Background(), capabilities.CapabilityCheck{UserID: "u1", Feature: capabilities.FeatureDocumentShareEmail})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolver_CachesPerUser(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		if r.URL.Query().Get("user_id") == "premium" {
			_, _ = w.Write([]byte(`{"capabilities":{"documents:share_email":true}}`))
			return
		}
		_, _ = w.Write([]byte(`{"capabilities":{}}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key"})
	require.NoError(t, err)
	r := NewResolver(client, false, time.Minute)
	ctx := context.Background()

	check := func(user string) bool {
		ok, err := r.HasFeature(ctx, capabilities.CapabilityCheck{UserID: user, Feature: capabilities.FeatureDocumentShareEmail})
		require.NoError(t, err)
		return ok
	}

	assert.True(t, check("premium"))
	assert.True(t, check("premium"))
	assert.False(t, check("free"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestResolver_NotConfigured(t *testing.T) {
	client, err := NewClient(Config{})
	require.NoError(t, err)
	r := NewResolver(client, false, time.Minute)

	_, err = r.HasFeature(context.Background(), capabilities.CapabilityCheck{UserID: "u1", Feature: capabilities.FeatureDocumentShareEmail})
	assert.ErrorIs(t, err, ErrPlansNotConfigured)
}

func TestResolver_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "key"})
	require.NoError(t, err)
	_, err = NewResolver(client, false, time.Minute).Resolve(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrPlansUnauthorized)
}
