package errs

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"Op only", E(Op("wifi.Scan")), "wifi.Scan"},
		{"Op and message", E(Op("wifi.Connect"), KindRejected, "Error: No network with SSID 'x' found."), "wifi.Connect: Error: No network with SSID 'x' found."},
		{"Message and cause", E("failed", errors.New("boom")), "failed: boom"},
		{"Everything", E(Op("a"), "b", errors.New("c")), "a: b: c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindOfWalksChain(t *testing.T) {
	inner := E(Op("wifi.command"), KindActionFailed, "no phrase")
	outer := E(Op("wifi.Create"), KindProfileCreation, inner, "step add")

	assert.Equal(t, KindProfileCreation, KindOf(outer))
	assert.True(t, Is(outer, KindActionFailed))
	assert.True(t, Is(outer, KindProfileCreation))
	assert.False(t, Is(outer, KindIO))

	wrapped := E(Op("agent.Bootstrap"), inner)
	assert.Equal(t, KindActionFailed, KindOf(wrapped))

	assert.Equal(t, KindOther, KindOf(errors.New("plain")))
	assert.Equal(t, KindOther, KindOf(nil))
}

func TestHTTPResponse(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"Invalid", E(KindInvalid, "ssid is required"), http.StatusBadRequest, "ssid is required"},
		{"Rejected", E(KindRejected, "Error: Connection activation failed"), http.StatusBadGateway, "Error: Connection activation failed"},
		{"State", E(KindState, "hotspot profile already exists"), http.StatusConflict, "hotspot profile already exists"},
		{"Unsupported", E(KindUnsupported, "not supported"), http.StatusNotImplemented, "not supported"},
		{"Plain", errors.New("secret detail"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HTTPResponse(rec, nil, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body["error"])
		})
	}
}
