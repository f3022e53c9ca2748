package wifi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/blang/semver"
	"go.uber.org/zap"

	"github.com/strct-org/strct-wifi/internal/errs"
	"github.com/strct-org/strct-wifi/internal/executil"
	"github.com/strct-org/strct-wifi/internal/telemetry"
)

const (
	DefaultTool    = "nmcli"
	DefaultTimeout = 30 * time.Second

	OpInterfaces  errs.Op = "wifi.Interfaces"
	OpToolVersion errs.Op = "wifi.ToolVersion"
)

// NM drives NetworkManager through its command line tool. It satisfies both
// Client and Hotspot for a single interface. NM holds no mutable state; the
// hotspot profile lives in NetworkManager's own configuration store, and
// callers that need at most one operation in flight must serialize.
type NM struct {
	iface       string
	tool        string
	timeout     time.Duration
	runner      executil.Runner
	log         *zap.Logger
	metrics     telemetry.Recorder
	rollback    bool
	defaultPass string
}

var _ Provider = (*NM)(nil)

type Option func(*NM)

// WithRunner replaces the process runner, typically with *executil.Mock.
func WithRunner(r executil.Runner) Option {
	return func(n *NM) { n.runner = r }
}

// WithTool overrides the program name or path of the network manager CLI.
func WithTool(tool string) Option {
	return func(n *NM) { n.tool = tool }
}

// WithTimeout bounds each invocation of the default runner.
func WithTimeout(d time.Duration) Option {
	return func(n *NM) { n.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(n *NM) { n.log = l }
}

func WithMetrics(m telemetry.Recorder) Option {
	return func(n *NM) { n.metrics = m }
}

// WithRollback deletes a partially created hotspot profile when a creation
// step fails.
func WithRollback() Option {
	return func(n *NM) { n.rollback = true }
}

// WithDefaultPassphrase lets Create fall back to p when no password is given.
func WithDefaultPassphrase(p string) Option {
	return func(n *NM) { n.defaultPass = p }
}

// New returns an adapter bound to iface for its whole lifetime.
func New(iface string, opts ...Option) *NM {
	n := &NM{
		iface:   iface,
		tool:    DefaultTool,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.runner == nil {
		n.runner = executil.Real{Timeout: n.timeout}
	}
	if n.log == nil {
		n.log = zap.NewNop()
	}
	if n.metrics == nil {
		n.metrics = telemetry.Nop{}
	}
	n.log = n.log.Named("wifi").With(zap.String("interface", iface))
	return n
}

// Interface returns the adapter name every command is scoped to.
func (n *NM) Interface() string {
	return n.iface
}

// command runs one invocation and classifies it. Launch failures are KindIO;
// everything else comes from Classify.
func (n *NM) command(ctx context.Context, op errs.Op, cat Category, args ...string) (string, error) {
	start := time.Now()
	res, err := n.runner.Run(ctx, n.tool, args...)
	elapsed := time.Since(start)

	if err != nil {
		err = errs.E(op, errs.KindIO, err, fmt.Sprintf("failed to run %s", n.tool))
	} else {
		var out string
		out, err = Classify(cat, res.Stdout, res.Stderr)
		if err == nil {
			n.metrics.ObserveCommand(cat.String(), outcomeOf(nil), elapsed)
			n.log.Debug("command ok",
				zap.String("category", cat.String()),
				zap.Strings("args", redact(args)),
				zap.Duration("duration", elapsed))
			return out, nil
		}
		err = errs.E(op, err)
	}

	n.metrics.ObserveCommand(cat.String(), outcomeOf(err), elapsed)
	n.log.Warn("command failed",
		zap.String("category", cat.String()),
		zap.Strings("args", redact(args)),
		zap.Duration("duration", elapsed),
		zap.Error(err))
	return "", err
}

// Interfaces lists the wifi devices NetworkManager knows about.
func (n *NM) Interfaces(ctx context.Context) ([]string, error) {
	out, err := n.command(ctx, OpInterfaces, CatQuery, "-t", "-f", "DEVICE,TYPE", "device", "status")
	if err != nil {
		return nil, err
	}

	var ifaces []string
	for _, fields := range terseRows(out) {
		if len(fields) >= 2 && fields[1] == "wifi" {
			ifaces = append(ifaces, fields[0])
		}
	}
	return ifaces, nil
}

// ToolVersion reports the version of the network manager CLI.
func (n *NM) ToolVersion(ctx context.Context) (semver.Version, error) {
	out, err := n.command(ctx, OpToolVersion, CatQuery, "--version")
	if err != nil {
		return semver.Version{}, err
	}

	// "nmcli tool, version 1.46.0"
	idx := strings.LastIndex(out, "version ")
	if idx < 0 {
		return semver.Version{}, errs.E(OpToolVersion, errs.KindDecode, out)
	}
	raw := strings.TrimSpace(out[idx+len("version "):])
	v, err := semver.ParseTolerant(raw)
	if err != nil {
		return semver.Version{}, errs.E(OpToolVersion, errs.KindDecode, err, raw)
	}
	return v, nil
}

// CheckToolVersion fails with KindUnsupported when the CLI is older than
// minVersion.
func (n *NM) CheckToolVersion(ctx context.Context, minVersion string) error {
	want, err := semver.ParseTolerant(minVersion)
	if err != nil {
		return errs.E(OpToolVersion, errs.KindInvalid, err, "bad minimum version "+minVersion)
	}
	have, err := n.ToolVersion(ctx)
	if err != nil {
		return err
	}
	if have.LT(want) {
		return errs.E(OpToolVersion, errs.KindUnsupported,
			fmt.Sprintf("%s %s is older than required %s", n.tool, have, want))
	}
	n.log.Info("network manager detected", zap.String("version", have.String()))
	return nil
}

// terseRows splits `nmcli -t` output into unescaped fields.
func terseRows(out string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		rows = append(rows, splitTerse(line))
	}
	return rows
}

func splitTerse(line string) []string {
	var fields []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, cur.String())
}

var secretFlags = map[string]bool{
	"password":     true,
	"wifi-sec.psk": true,
}

func redact(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if i > 0 && secretFlags[args[i-1]] {
			out[i] = "******"
			continue
		}
		out[i] = a
	}
	return out
}
