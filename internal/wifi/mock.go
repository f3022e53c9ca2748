package wifi

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/strct-org/strct-wifi/internal/errs"
)

// MockWiFi is an in-memory Provider for development machines without a
// wireless adapter. It follows the same hotspot lifecycle rules as NM.
type MockWiFi struct {
	Networks []Network
	Log      *zap.Logger
	// ConnectErr, when set, is returned by every Connect call.
	ConnectErr error

	mu        sync.Mutex
	radioOff  bool
	connected string
	profile   *Credential
	active    bool
}

var _ Provider = (*MockWiFi)(nil)

func NewMock(log *zap.Logger) *MockWiFi {
	if log == nil {
		log = zap.NewNop()
	}
	return &MockWiFi{
		Log: log.Named("wifi.mock"),
		Networks: []Network{
			{BSSID: "AA:BB:CC:DD:EE:01", SSID: "Test_Net", Mode: "Infra", Channel: 6, Rate: "130 Mbit/s", Signal: 99, Security: "WPA2"},
			{BSSID: "AA:BB:CC:DD:EE:02", SSID: "Cafe Guest", Mode: "Infra", Channel: 11, Rate: "54 Mbit/s", Signal: 42, Security: ""},
		},
	}
}

func (m *MockWiFi) logger() *zap.Logger {
	if m.Log == nil {
		return zap.NewNop()
	}
	return m.Log
}

func (m *MockWiFi) Connect(ctx context.Context, cred Credential) error {
	if cred.SSID == "" {
		return errs.E(OpConnect, errs.KindInvalid, "ssid is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.connected = cred.SSID
	m.logger().Info("connected", zap.String("ssid", cred.SSID))
	return nil
}

// Connected returns the SSID joined last, or "".
func (m *MockWiFi) Connected() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockWiFi) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected == "" {
		return errs.E(OpDisconnect, errs.KindActionFailed, "Error: Device is not active.")
	}
	m.connected = ""
	return nil
}

func (m *MockWiFi) TurnOn(ctx context.Context) error {
	m.mu.Lock()
	m.radioOff = false
	m.mu.Unlock()
	return nil
}

func (m *MockWiFi) TurnOff(ctx context.Context) error {
	m.mu.Lock()
	m.radioOff = true
	m.connected = ""
	m.active = false
	m.mu.Unlock()
	return nil
}

func (m *MockWiFi) IsOn(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.radioOff, nil
}

func (m *MockWiFi) Scan(ctx context.Context) ([]Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Network, len(m.Networks))
	copy(out, m.Networks)
	return out, nil
}

func (m *MockWiFi) Create(ctx context.Context, cred Credential) error {
	if cred.SSID == "" || cred.Password == "" {
		return errs.E(OpCreate, errs.KindInvalid, "ssid and password are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile != nil {
		return errs.E(OpCreate, errs.KindState, "hotspot profile already exists")
	}
	m.profile = &cred
	m.logger().Info("hotspot created", zap.String("ssid", cred.SSID))
	return nil
}

func (m *MockWiFi) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return errs.E(OpStart, errs.KindState, "hotspot profile does not exist")
	}
	m.active = true
	return nil
}

func (m *MockWiFi) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return errs.E(OpStop, errs.KindState, "hotspot profile does not exist")
	}
	m.active = false
	return nil
}

func (m *MockWiFi) Remove(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.profile == nil {
		return errs.E(OpRemove, errs.KindNotFound, "hotspot profile does not exist")
	}
	m.profile = nil
	m.active = false
	return nil
}

func (m *MockWiFi) Clients(ctx context.Context) ([]string, error) {
	return nil, errs.E(OpClients, errs.KindUnsupported, "listing hotspot clients is not supported")
}

func (m *MockWiFi) IsActive(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, nil
}
