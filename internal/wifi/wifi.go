package wifi

import "context"

// ProfileName is the fixed connection profile used for the access point.
const ProfileName = "Hotspot"

// Network represents a visible WiFi Access Point from a single scan.
type Network struct {
	BSSID    string `json:"bssid"`
	SSID     string `json:"ssid"`
	Mode     string `json:"mode"`
	Channel  int    `json:"channel"`
	Rate     string `json:"rate"`
	Signal   int    `json:"signal"`
	Security string `json:"security"`
}

// Credential names a network to join or host.
type Credential struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// Client joins and leaves networks on one interface.
type Client interface {
	Connect(ctx context.Context, cred Credential) error
	Disconnect(ctx context.Context) error
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
	IsOn(ctx context.Context) (bool, error)
	Scan(ctx context.Context) ([]Network, error)
}

// Hotspot manages the local access point profile.
type Hotspot interface {
	Create(ctx context.Context, cred Credential) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Remove(ctx context.Context) error
	Clients(ctx context.Context) ([]string, error)
	IsActive(ctx context.Context) (bool, error)
}

// Provider is satisfied by adapters that offer both capabilities.
type Provider interface {
	Client
	Hotspot
}
