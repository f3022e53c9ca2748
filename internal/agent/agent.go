package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/strct-org/strct-wifi/internal/config"
	"github.com/strct-org/strct-wifi/internal/connectivity"
	"github.com/strct-org/strct-wifi/internal/errs"
	"github.com/strct-org/strct-wifi/internal/setup"
	"github.com/strct-org/strct-wifi/internal/telemetry"
	"github.com/strct-org/strct-wifi/internal/wifi"
)

const (
	OpBootstrap    errs.Op = "agent.Bootstrap"
	OpCheckTool    errs.Op = "agent.checkTool"
	OpStartHotspot errs.Op = "agent.startHotspot"
)

// Onliner reports internet reachability.
type Onliner interface {
	Online(ctx context.Context) bool
}

// Portal collects credentials from a phone joined to the hotspot.
type Portal interface {
	Run(ctx context.Context) (wifi.Credential, error)
}

type toolChecker interface {
	CheckToolVersion(ctx context.Context, minVersion string) error
}

type Agent struct {
	Config  *config.Config
	Client  wifi.Client
	Hotspot wifi.Hotspot
	Net     Onliner
	Portal  Portal
	Log     *zap.Logger

	// settle is how long to wait after tearing the hotspot down.
	settle time.Duration
}

func New(cfg *config.Config, log *zap.Logger) *Agent {
	provider := loadWifiManager(cfg, log)
	if cfg.MetricsEnabled {
		telemetry.InitMetrics()
	}

	return &Agent{
		Config:  cfg,
		Client:  provider,
		Hotspot: provider,
		Net: connectivity.New(connectivity.Config{
			PingTarget: cfg.ProbeTarget,
			ProbeURL:   cfg.ProbeURL,
		}, log),
		Portal: setup.NewPortal(provider, provider, setup.Config{
			Addr:      cfg.PortalAddr,
			DNSAddr:   cfg.DNSAddr,
			GatewayIP: cfg.GatewayIP,
			Metrics:   cfg.MetricsEnabled,
		}, log),
		Log:    log.Named("agent"),
		settle: 2 * time.Second,
	}
}

func loadWifiManager(cfg *config.Config, log *zap.Logger) wifi.Provider {
	if !cfg.UseRealHardware() {
		log.Info("[WIFI] Factory: Returning MOCK WiFi provider")
		return wifi.NewMock(log)
	}

	opts := []wifi.Option{
		wifi.WithTool(cfg.Tool),
		wifi.WithTimeout(cfg.CommandTimeout),
		wifi.WithLogger(log),
	}
	if cfg.MetricsEnabled {
		opts = append(opts, wifi.WithMetrics(telemetry.Prometheus{}))
	}
	if cfg.HotspotRollback {
		opts = append(opts, wifi.WithRollback())
	}
	log.Info("[WIFI] Factory: Returning nmcli provider", zap.String("interface", cfg.Interface))
	return wifi.New(cfg.Interface, opts...)
}

// Bootstrap makes sure the device is online, running the hotspot setup
// wizard when it is not.
func (a *Agent) Bootstrap(ctx context.Context) error {
	if err := a.checkTool(ctx); err != nil {
		return errs.E(OpBootstrap, err)
	}

	if a.Net.Online(ctx) {
		a.Log.Info("[INIT] Internet detected. Skipping setup.")
		return nil
	}

	a.Log.Info("[INIT] No Internet detected. Starting Setup Wizard...")
	if err := a.runSetupWizard(ctx); err != nil {
		return errs.E(OpBootstrap, err)
	}

	if !a.Net.Online(ctx) {
		return errs.E(OpBootstrap, errs.KindNetwork, "still no internet after setup wizard")
	}
	return nil
}

func (a *Agent) checkTool(ctx context.Context) error {
	tc, ok := a.Client.(toolChecker)
	if !ok || a.Config.MinToolVersion == "" {
		return nil
	}
	if err := tc.CheckToolVersion(ctx, a.Config.MinToolVersion); err != nil {
		return errs.E(OpCheckTool, err)
	}
	return nil
}

func (a *Agent) runSetupWizard(ctx context.Context) error {
	if err := a.startHotspot(ctx); err != nil {
		return err
	}
	defer a.teardownHotspot(context.WithoutCancel(ctx))

	waitCtx := ctx
	if a.Config.SetupWaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, a.Config.SetupWaitTimeout)
		defer cancel()
	}

	a.Log.Info("[SETUP] Waiting for user credentials...")
	cred, err := a.Portal.Run(waitCtx)
	if err != nil {
		return err
	}
	a.Log.Info("[SETUP] Joined network", zap.String("ssid", cred.SSID))
	return nil
}

// startHotspot clears any stale profile and brings a fresh one up.
func (a *Agent) startHotspot(ctx context.Context) error {
	if err := a.Hotspot.Remove(ctx); err != nil && !errs.Is(err, errs.KindNotFound) {
		a.Log.Warn("[SETUP] Could not remove stale hotspot profile", zap.Error(err))
	}

	cred := wifi.Credential{SSID: a.Config.HotspotSSID(), Password: a.Config.HotspotPass()}
	a.Log.Info("[SETUP] Creating Hotspot", zap.String("ssid", cred.SSID))

	if err := a.Hotspot.Create(ctx, cred); err != nil {
		return errs.E(OpStartHotspot, err)
	}
	if err := a.Hotspot.Start(ctx); err != nil {
		return errs.E(OpStartHotspot, err)
	}
	return nil
}

// teardownHotspot is best effort: joining a network on the same radio
// usually deactivates the hotspot already.
func (a *Agent) teardownHotspot(ctx context.Context) {
	if active, err := a.Hotspot.IsActive(ctx); err == nil && active {
		if err := a.Hotspot.Stop(ctx); err != nil {
			a.Log.Warn("[SETUP] Failed to stop hotspot", zap.Error(err))
		}
	}
	if err := a.Hotspot.Remove(ctx); err != nil && !errs.Is(err, errs.KindNotFound) {
		a.Log.Warn("[SETUP] Failed to remove hotspot profile", zap.Error(err))
	}
	if a.settle > 0 {
		select {
		case <-time.After(a.settle):
		case <-ctx.Done():
		}
	}
}
