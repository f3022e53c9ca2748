package wifi

import (
	"context"

	"go.uber.org/zap"

	"github.com/strct-org/strct-wifi/internal/errs"
)

const (
	OpConnect    errs.Op = "wifi.Connect"
	OpDisconnect errs.Op = "wifi.Disconnect"
	OpScan       errs.Op = "wifi.Scan"
	OpRadio      errs.Op = "wifi.Radio"
)

// Connect joins cred.SSID on the configured interface. An empty password
// joins an open network.
func (n *NM) Connect(ctx context.Context, cred Credential) error {
	if cred.SSID == "" {
		return errs.E(OpConnect, errs.KindInvalid, "ssid is required")
	}

	args := []string{"device", "wifi", "connect", cred.SSID}
	if cred.Password != "" {
		args = append(args, "password", cred.Password)
	}
	args = append(args, "ifname", n.iface)

	n.log.Info("connecting", zap.String("ssid", cred.SSID))
	_, err := n.command(ctx, OpConnect, CatConnect, args...)
	return err
}

// Disconnect drops whatever connection is active on the configured interface.
func (n *NM) Disconnect(ctx context.Context) error {
	_, err := n.command(ctx, OpDisconnect, CatDisconnect, "device", "disconnect", n.iface)
	return err
}

// Scan requests a fresh scan and returns every visible access point.
func (n *NM) Scan(ctx context.Context) ([]Network, error) {
	if _, err := n.command(ctx, OpScan, CatRescan, "device", "wifi", "rescan", "ifname", n.iface); err != nil {
		return nil, err
	}

	out, err := n.command(ctx, OpScan, CatList, "device", "wifi", "list", "ifname", n.iface)
	if err != nil {
		return nil, err
	}

	networks, err := ParseScan(out)
	if err != nil {
		return nil, errs.E(OpScan, err)
	}
	n.metrics.ObserveScan(n.iface, len(networks))
	return networks, nil
}

// TurnOn enables the wifi radio. NetworkManager switches the radio for all
// wifi devices, not only the configured one.
func (n *NM) TurnOn(ctx context.Context) error {
	_, err := n.command(ctx, OpRadio, CatRadio, "radio", "wifi", "on")
	return err
}

// TurnOff disables the wifi radio.
func (n *NM) TurnOff(ctx context.Context) error {
	_, err := n.command(ctx, OpRadio, CatRadio, "radio", "wifi", "off")
	return err
}

func (n *NM) IsOn(ctx context.Context) (bool, error) {
	out, err := n.command(ctx, OpRadio, CatQuery, "radio", "wifi")
	if err != nil {
		return false, err
	}

	switch out {
	case "enabled":
		return true, nil
	case "disabled":
		return false, nil
	}
	return false, errs.E(OpRadio, errs.KindActionFailed, out)
}
