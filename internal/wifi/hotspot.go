package wifi

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/strct-org/strct-wifi/internal/errs"
)

const (
	OpCreate   errs.Op = "wifi.hotspot.Create"
	OpStart    errs.Op = "wifi.hotspot.Start"
	OpStop     errs.Op = "wifi.hotspot.Stop"
	OpRemove   errs.Op = "wifi.hotspot.Remove"
	OpClients  errs.Op = "wifi.hotspot.Clients"
	OpIsActive errs.Op = "wifi.hotspot.IsActive"
)

const rollbackTimeout = 10 * time.Second

type createStep struct {
	name string
	cat  Category
	args []string
}

// Create writes the access point profile. Steps run in order and the first
// failure aborts the sequence; earlier steps stay applied unless the adapter
// was built WithRollback.
func (n *NM) Create(ctx context.Context, cred Credential) error {
	if cred.SSID == "" {
		return errs.E(OpCreate, errs.KindInvalid, "ssid is required")
	}
	password := cred.Password
	if password == "" {
		if n.defaultPass == "" {
			return errs.E(OpCreate, errs.KindInvalid, "password is required")
		}
		n.log.Warn("hotspot created with default passphrase")
		password = n.defaultPass
	}

	exists, err := n.hasProfile(ctx, OpCreate, false)
	if err != nil {
		return err
	}
	if exists {
		return errs.E(OpCreate, errs.KindState, "hotspot profile already exists")
	}

	n.log.Info("creating hotspot", zap.String("ssid", cred.SSID))

	steps := []createStep{
		{"add", CatHotspotCreate, []string{"con", "add", "type", "wifi", "ifname", n.iface,
			"con-name", ProfileName, "autoconnect", "yes", "ssid", cred.SSID}},
		{"mode", CatHotspotModify, []string{"con", "modify", ProfileName,
			"802-11-wireless.mode", "ap", "802-11-wireless.band", "bg", "ipv4.method", "shared"}},
		{"security", CatHotspotModify, []string{"con", "modify", ProfileName, "wifi-sec.key-mgmt", "wpa-psk"}},
		{"key", CatHotspotModify, []string{"con", "modify", ProfileName, "wifi-sec.psk", password}},
	}

	for i, step := range steps {
		if _, err := n.command(ctx, OpCreate, step.cat, step.args...); err != nil {
			if n.rollback && i > 0 {
				n.rollbackProfile(ctx)
			}
			return errs.E(OpCreate, errs.KindProfileCreation, err, fmt.Sprintf("step %s failed", step.name))
		}
	}
	return nil
}

// rollbackProfile runs even when ctx is what made the step fail.
func (n *NM) rollbackProfile(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if _, err := n.command(ctx, OpRemove, CatHotspotDelete, "con", "delete", ProfileName); err != nil {
		n.log.Warn("rollback of partial hotspot profile failed", zap.Error(err))
		return
	}
	n.log.Info("rolled back partial hotspot profile")
}

// Start activates the profile. It fails with KindState if none was created.
func (n *NM) Start(ctx context.Context) error {
	if _, err := n.hasProfile(ctx, OpStart, true); err != nil {
		return err
	}
	n.log.Info("bringing up hotspot")
	_, err := n.command(ctx, OpStart, CatHotspotUp, "con", "up", ProfileName)
	return err
}

// Stop deactivates the profile. It fails with KindState if none was created.
func (n *NM) Stop(ctx context.Context) error {
	if _, err := n.hasProfile(ctx, OpStop, true); err != nil {
		return err
	}
	n.log.Info("stopping hotspot")
	_, err := n.command(ctx, OpStop, CatHotspotDown, "con", "down", ProfileName)
	return err
}

// Remove deletes the profile. It fails with KindNotFound if none exists.
func (n *NM) Remove(ctx context.Context) error {
	exists, err := n.hasProfile(ctx, OpRemove, false)
	if err != nil {
		return err
	}
	if !exists {
		return errs.E(OpRemove, errs.KindNotFound, "hotspot profile does not exist")
	}
	_, err = n.command(ctx, OpRemove, CatHotspotDelete, "con", "delete", ProfileName)
	return err
}

// Clients is not backed by any NetworkManager command.
func (n *NM) Clients(ctx context.Context) ([]string, error) {
	return nil, errs.E(OpClients, errs.KindUnsupported, "listing hotspot clients is not supported")
}

// IsActive reports whether the hotspot profile is currently up.
func (n *NM) IsActive(ctx context.Context) (bool, error) {
	out, err := n.command(ctx, OpIsActive, CatQuery, "-t", "-f", "NAME", "connection", "show", "--active")
	if err != nil {
		return false, err
	}
	return containsProfile(out), nil
}

// hasProfile looks the profile up in the saved connections. With required
// set, a missing profile is a KindState error.
func (n *NM) hasProfile(ctx context.Context, op errs.Op, required bool) (bool, error) {
	out, err := n.command(ctx, op, CatQuery, "-t", "-f", "NAME", "connection", "show")
	if err != nil {
		return false, err
	}
	exists := containsProfile(out)
	if required && !exists {
		return false, errs.E(op, errs.KindState, "hotspot profile does not exist")
	}
	return exists, nil
}

func containsProfile(out string) bool {
	for _, row := range terseRows(out) {
		if len(row) > 0 && row[0] == ProfileName {
			return true
		}
	}
	return false
}
