package setup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/strct-org/strct-wifi/internal/errs"
	"github.com/strct-org/strct-wifi/internal/wifi"
)

const (
	OpRun     errs.Op = "setup.Run"
	OpConnect errs.Op = "setup.connect"
)

type Config struct {
	Addr      string
	DNSAddr   string // empty disables the DNS redirector
	GatewayIP string
	Metrics   bool
}

// Portal is the captive setup page served while the hotspot is up. It only
// depends on the two capability sets, so either can be replaced in tests.
type Portal struct {
	client  wifi.Client
	hotspot wifi.Hotspot
	cfg     Config
	log     *zap.Logger
	done    chan wifi.Credential
}

func NewPortal(client wifi.Client, hotspot wifi.Hotspot, cfg Config, log *zap.Logger) *Portal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Portal{
		client:  client,
		hotspot: hotspot,
		cfg:     cfg,
		log:     log.Named("setup"),
		done:    make(chan wifi.Credential, 1),
	}
}

// Done delivers the credential of the first successful join.
func (p *Portal) Done() <-chan wifi.Credential {
	return p.done
}

func (p *Portal) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/scan", p.handleScan).Methods(http.MethodGet)
	r.HandleFunc("/api/connect", p.handleConnect).Methods(http.MethodPost)
	r.HandleFunc("/api/hotspot", p.handleHotspot).Methods(http.MethodGet)
	if p.cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Everything else ("/", "/generate_204", "/hotspot-detect.html", ...)
	// gets the page so the OS shows its portal popup.
	r.PathPrefix("/").HandlerFunc(p.handlePage)

	return r
}

func (p *Portal) handleScan(w http.ResponseWriter, r *http.Request) {
	networks, err := p.client.Scan(r.Context())
	if err != nil {
		errs.HTTPResponse(w, p.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(networks)
}

func (p *Portal) handleConnect(w http.ResponseWriter, r *http.Request) {
	var cred wifi.Credential
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		errs.HTTPResponse(w, p.log, errs.E(OpConnect, errs.KindInvalid, err, "Invalid JSON"))
		return
	}
	if cred.SSID == "" {
		errs.HTTPResponse(w, p.log, errs.E(OpConnect, errs.KindInvalid, "ssid is required"))
		return
	}
	p.log.Info("received credentials", zap.String("ssid", cred.SSID))

	if err := p.client.Connect(r.Context(), cred); err != nil {
		errs.HTTPResponse(w, p.log, errs.E(OpConnect, err))
		return
	}

	w.Write([]byte("Connected! Rebooting..."))
	select {
	case p.done <- cred:
	default:
	}
}

func (p *Portal) handleHotspot(w http.ResponseWriter, r *http.Request) {
	active, err := p.hotspot.IsActive(r.Context())
	if err != nil {
		errs.HTTPResponse(w, p.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"active": active})
}

func (p *Portal) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, htmlPage)
}

// Run listens on the configured addresses and blocks until credentials are
// accepted, a server fails, or ctx ends.
func (p *Portal) Run(ctx context.Context) (wifi.Credential, error) {
	ln, err := net.Listen("tcp", p.cfg.Addr)
	if err != nil {
		return wifi.Credential{}, errs.E(OpRun, errs.KindSystem, err, "portal listen failed")
	}

	var pc net.PacketConn
	if p.cfg.DNSAddr != "" {
		pc, err = net.ListenPacket("udp", p.cfg.DNSAddr)
		if err != nil {
			ln.Close()
			return wifi.Credential{}, errs.E(OpRun, errs.KindSystem, err, "dns listen failed")
		}
	}

	return p.Serve(ctx, ln, pc)
}

// Serve runs the portal on ln and, when pc is non-nil, the DNS redirector
// on pc. Both are closed before Serve returns.
func (p *Portal) Serve(ctx context.Context, ln net.Listener, pc net.PacketConn) (wifi.Credential, error) {
	errCh := make(chan error, 3)

	srv := &http.Server{
		Handler:           p.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	p.log.Info("web server listening", zap.String("addr", ln.Addr().String()))

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			p.log.Warn("portal shutdown", zap.Error(err))
		}
	}()

	if pc != nil {
		redirector := &DNSRedirector{RedirectIP: p.cfg.GatewayIP, Log: p.log}
		dnsSrv, err := redirector.serve(pc, errCh)
		if err != nil {
			pc.Close()
			return wifi.Credential{}, errs.E(OpRun, errs.KindSystem, err, "dns redirector failed")
		}
		defer shutdownDNS(dnsSrv, p.log)
	}

	select {
	case cred := <-p.done:
		return cred, nil
	case err := <-errCh:
		return wifi.Credential{}, errs.E(OpRun, errs.KindSystem, err)
	case <-ctx.Done():
		return wifi.Credential{}, errs.E(OpRun, errs.KindNetwork, ctx.Err(), "setup aborted")
	}
}

func shutdownDNS(s *dns.Server, log *zap.Logger) {
	if err := s.Shutdown(); err != nil {
		log.Warn("dns shutdown", zap.Error(err))
	}
}
