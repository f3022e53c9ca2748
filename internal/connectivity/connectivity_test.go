package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOnlineHTTPProbe(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"Generate 204", http.StatusNoContent, true},
		{"Plain 200", http.StatusOK, true},
		{"Captive redirect", http.StatusFound, false},
		{"Server error", http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status == http.StatusFound {
					w.Header().Set("Location", "http://10.42.0.1/")
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := New(Config{ProbeURL: srv.URL, Timeout: time.Second}, nil)
			assert.Equal(t, tt.want, c.Online(context.Background()))
		})
	}
}

func TestOfflineWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{ProbeURL: url, Timeout: 200 * time.Millisecond}, nil)
	assert.False(t, c.Online(context.Background()))

	assert.False(t, New(Config{}, nil).Online(context.Background()))
}
