package connectivity

import (
	"context"
	"net/http"
	"time"

	ping "github.com/prometheus-community/pro-bing"
	"go.uber.org/zap"
)

type Config struct {
	// PingTarget is probed over ICMP first. Empty skips the ping.
	PingTarget string
	// ProbeURL must answer 204 (or 200) when the internet is reachable.
	ProbeURL string
	Timeout  time.Duration
}

// Checker decides whether the device already has internet access.
type Checker struct {
	cfg    Config
	client *http.Client
	log    *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Checker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Checker{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			// A captive portal answers with a redirect; that is not internet.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: log.Named("connectivity"),
	}
}

// Online reports true when either probe succeeds.
func (c *Checker) Online(ctx context.Context) bool {
	if c.cfg.PingTarget != "" {
		err := c.ping(ctx)
		if err == nil {
			return true
		}
		c.log.Debug("ping probe failed", zap.String("target", c.cfg.PingTarget), zap.Error(err))
	}
	if c.cfg.ProbeURL == "" {
		return false
	}
	return c.httpProbe(ctx)
}

func (c *Checker) ping(ctx context.Context) error {
	pinger, err := ping.NewPinger(c.cfg.PingTarget)
	if err != nil {
		return err
	}
	pinger.SetPrivileged(true)
	pinger.Count = 2
	pinger.Timeout = c.cfg.Timeout

	if err := pinger.RunWithContext(ctx); err != nil {
		return err
	}
	if stats := pinger.Statistics(); stats.PacketsRecv == 0 {
		return errNoReply
	}
	return nil
}

func (c *Checker) httpProbe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ProbeURL, nil)
	if err != nil {
		c.log.Warn("bad probe url", zap.String("url", c.cfg.ProbeURL), zap.Error(err))
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("http probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK
}

type probeError string

func (e probeError) Error() string { return string(e) }

const errNoReply = probeError("no echo reply received")
