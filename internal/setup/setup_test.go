package setup

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/strct-org/strct-wifi/internal/errs"
	"github.com/strct-org/strct-wifi/internal/wifi"
)

// SpyWiFi remembers what was called so the handlers can be verified.
type SpyWiFi struct {
	wifi.MockWiFi
	ConnectCalled bool
	Received      wifi.Credential
	ConnectErr    error
	ScanErr       error
}

func (s *SpyWiFi) Scan(ctx context.Context) ([]wifi.Network, error) {
	if s.ScanErr != nil {
		return nil, s.ScanErr
	}
	return []wifi.Network{{SSID: "TestNet", Signal: 100, Security: "WPA2"}}, nil
}

func (s *SpyWiFi) Connect(ctx context.Context, cred wifi.Credential) error {
	s.ConnectCalled = true
	s.Received = cred
	return s.ConnectErr
}

func newTestPortal(spy *SpyWiFi) *Portal {
	return NewPortal(spy, spy, Config{GatewayIP: "10.42.0.1", Metrics: true}, nil)
}

func TestCaptivePortalFlow(t *testing.T) {
	spy := &SpyWiFi{}
	portal := newTestPortal(spy)

	ts := httptest.NewServer(portal.Routes())
	defer ts.Close()

	phonePayload := []byte(`{"ssid":"HomeWiFi", "password":"secretpassword"}`)
	resp, err := http.Post(ts.URL+"/api/connect", "application/json", bytes.NewBuffer(phonePayload))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case cred := <-portal.Done():
		assert.Equal(t, "HomeWiFi", cred.SSID)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout: portal never signalled completion")
	}

	assert.True(t, spy.ConnectCalled)
	assert.Equal(t, "secretpassword", spy.Received.Password)
}

func TestConnectErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		connectErr error
		wantCode   int
	}{
		{"Bad JSON", `{"ssid":`, nil, http.StatusBadRequest},
		{"Missing SSID", `{"password":"x"}`, nil, http.StatusBadRequest},
		{"Rejected by tool", `{"ssid":"Home","password":"bad"}`,
			errs.E(wifi.OpConnect, errs.KindRejected, "Error: Connection activation failed: Secrets were required"),
			http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &SpyWiFi{ConnectErr: tt.connectErr}
			portal := newTestPortal(spy)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/connect", strings.NewReader(tt.body))
			portal.Routes().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			select {
			case <-portal.Done():
				t.Fatal("failed connect must not complete setup")
			default:
			}
		})
	}
}

func TestScanHandler(t *testing.T) {
	spy := &SpyWiFi{}
	rec := httptest.NewRecorder()
	newTestPortal(spy).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scan", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var nets []wifi.Network
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nets))
	require.Len(t, nets, 1)
	assert.Equal(t, "TestNet", nets[0].SSID)

	spy.ScanErr = errs.E(wifi.OpScan, errs.KindRejected, "Error: Scanning not allowed while unavailable")
	rec = httptest.NewRecorder()
	newTestPortal(spy).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scan", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scanning not allowed")
}

func TestHotspotStatusAndCatchAll(t *testing.T) {
	spy := &SpyWiFi{}
	routes := newTestPortal(spy).Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/hotspot", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"active":false}`, rec.Body.String())

	for _, path := range []string{"/", "/generate_204", "/hotspot-detect.html"} {
		rec = httptest.NewRecorder()
		routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>", path)
		assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	}

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPageRendersSSIDsAsText(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestPortal(&SpyWiFi{}).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	body := rec.Body.String()

	assert.NotContains(t, body, "innerHTML", "network names must not be parsed as markup")
	assert.NotContains(t, body, "+ n.ssid")
	assert.Contains(t, body, "node.textContent = value")
	assert.Contains(t, body, "text('strong', n.ssid)")
	assert.Contains(t, body, "el('selected-ssid').textContent = n.ssid")
}

func TestServeRedirectsDNSAndShutsDown(t *testing.T) {
	defer goleak.VerifyNone(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	spy := &SpyWiFi{}
	portal := newTestPortal(spy)

	type result struct {
		cred wifi.Credential
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		cred, err := portal.Serve(context.Background(), ln, pc)
		resCh <- result{cred, err}
	}()

	m := new(dns.Msg)
	m.SetQuestion("connectivitycheck.gstatic.com.", dns.TypeA)
	c := &dns.Client{Timeout: 2 * time.Second}

	var in *dns.Msg
	require.Eventually(t, func() bool {
		in, _, err = c.Exchange(m, pc.LocalAddr().String())
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)

	require.Len(t, in.Answer, 1)
	a, ok := in.Answer[0].(*dns.A)
	require.True(t, ok)
	assert.Equal(t, "10.42.0.1", a.A.String())
	assert.True(t, in.Authoritative)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Post("http://"+ln.Addr().String()+"/api/connect", "application/json",
		strings.NewReader(`{"ssid":"HomeWiFi","password":"pw"}`))
	require.NoError(t, err)
	resp.Body.Close()
	client.CloseIdleConnections()

	select {
	case res := <-resCh:
		require.NoError(t, res.err)
		assert.Equal(t, "HomeWiFi", res.cred.SSID)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after credentials were accepted")
	}
}

func TestServeCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = newTestPortal(&SpyWiFi{}).Serve(ctx, ln, nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindNetwork, errs.KindOf(err))
}

func TestDNSRedirectorIgnoresNonA(t *testing.T) {
	rec := &recordingWriter{}
	m := new(dns.Msg)
	m.SetQuestion("example.com.", dns.TypeAAAA)

	(&DNSRedirector{RedirectIP: "10.42.0.1"}).ServeDNS(rec, m)

	require.NotNil(t, rec.msg)
	assert.Empty(t, rec.msg.Answer)
	assert.Equal(t, m.Id, rec.msg.Id)
}

type recordingWriter struct {
	dns.ResponseWriter
	msg *dns.Msg
}

func (r *recordingWriter) WriteMsg(m *dns.Msg) error {
	r.msg = m
	return nil
}
