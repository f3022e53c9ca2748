package config

import (
	"flag"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	DeviceID         string
	Interface        string
	Tool             string
	MinToolVersion   string
	CommandTimeout   time.Duration
	HotspotPrefix    string
	HotspotPassword  string
	HotspotRollback  bool
	PortalAddr       string
	DNSAddr          string
	GatewayIP        string
	ProbeURL         string
	ProbeTarget      string
	MetricsEnabled   bool
	SetupWaitTimeout time.Duration
	IsDev            bool
	Verbose          bool
}

// Load reads flags, an optional .env file and the environment.
func Load() *Config {
	devMode := flag.Bool("dev", false, "Run in development mode (Mock hardware)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		zap.S().Info("[CONFIG] No .env file found, relying on system env vars")
	}

	return FromEnv(*devMode, *verbose)
}

// FromEnv builds a Config from the current environment only.
func FromEnv(isDev, verbose bool) *Config {
	cfg := &Config{
		IsDev:            isDev,
		Verbose:          verbose,
		Interface:        getEnv("WIFI_INTERFACE", "wlan0"),
		Tool:             getEnv("NMCLI_PATH", "nmcli"),
		MinToolVersion:   getEnv("NMCLI_MIN_VERSION", "1.10.0"),
		CommandTimeout:   time.Duration(getEnvAsInt("COMMAND_TIMEOUT", 30)) * time.Second,
		HotspotPrefix:    getEnv("HOTSPOT_SSID_PREFIX", "Strct-Setup-"),
		HotspotPassword:  getEnv("HOTSPOT_PASSWORD", ""),
		HotspotRollback:  getEnvAsBool("HOTSPOT_ROLLBACK", true),
		GatewayIP:        getEnv("GATEWAY_IP", "10.42.0.1"),
		ProbeURL:         getEnv("PROBE_URL", "http://clients3.google.com/generate_204"),
		ProbeTarget:      getEnv("PROBE_TARGET", "8.8.8.8"),
		MetricsEnabled:   getEnvAsBool("METRICS_ENABLED", true),
		SetupWaitTimeout: time.Duration(getEnvAsInt("SETUP_TIMEOUT", 0)) * time.Second,
	}

	if isDev {
		cfg.PortalAddr = getEnv("PORTAL_ADDR", ":8082")
		cfg.DNSAddr = getEnv("DNS_ADDR", ":5353")
	} else {
		cfg.PortalAddr = getEnv("PORTAL_ADDR", ":80")
		cfg.DNSAddr = getEnv("DNS_ADDR", ":53")
	}

	cfg.DeviceID = getOrGenerateDeviceID(cfg.IsDev)

	return cfg
}

// UseRealHardware reports whether the nmcli adapter should be used.
func (c *Config) UseRealHardware() bool {
	return runtime.GOOS == "linux" && !c.IsDev
}

// HotspotSSID is the prefix followed by the first four characters of the
// device identifier.
func (c *Config) HotspotSSID() string {
	return c.HotspotPrefix + strings.ToUpper(deviceSuffix(c.DeviceID))
}

// HotspotPass returns the configured passphrase or one derived from the
// device identifier.
func (c *Config) HotspotPass() string {
	if c.HotspotPassword != "" {
		return c.HotspotPassword
	}
	return "strct-" + deviceSuffix(c.DeviceID) + "-setup"
}

func deviceSuffix(id string) string {
	id = strings.TrimPrefix(id, "device-")
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 4 {
		id = id[:4]
	}
	return id
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	val, err := strconv.Atoi(strValue)
	if err != nil {
		zap.S().Warnf("[CONFIG] Invalid integer for %s, using default: %d", key, fallback)
		return fallback
	}
	return val
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	val, err := strconv.ParseBool(strValue)
	if err != nil {
		zap.S().Warnf("[CONFIG] Invalid boolean for %s, using default: %v", key, fallback)
		return fallback
	}
	return val
}
