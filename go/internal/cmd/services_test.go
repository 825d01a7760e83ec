package main

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mcdev12/draftroom/go/internal/config"
)

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no list allows all", origin: "https://evil.test", want: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://evil.test", want: true},
		{name: "listed", allowed: []string{"https://draft.test"}, origin: "https://draft.test", want: true},
		{name: "unlisted", allowed: []string{"https://draft.test"}, origin: "https://evil.test", want: false},
		{name: "no origin header", allowed: []string{"https://draft.test"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(req))
		})
	}
}

func TestHubConfigFromSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Gateway.PickRate = 2.5
	cfg.Gateway.PickBurst = 7
	cfg.Gateway.MaxMissedPongs = 4

	hc := hubConfig(cfg)
	assert.Equal(t, rate.Limit(2.5), hc.PickRate)
	assert.Equal(t, 7, hc.PickBurst)
	assert.Equal(t, 4, hc.MaxMissedPongs)
	assert.Equal(t, cfg.Gateway.SendBufferSize, hc.SendBufferSize)
	assert.NotNil(t, hc.CheckOrigin)
}

func TestCatalogSourceDefaultsToBuiltin(t *testing.T) {
	cat, err := catalogSource(config.Default().Draft)
	require.NoError(t, err)
	assert.Equal(t, "nfl", cat.Sport())
}
