// Package config loads the bridge's configuration through viper: a typed
// struct with mapstructure tags, populated from a config file (JSON/YAML/TOML,
// whichever extension is given) with environment variable overrides layered
// on top.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pingcap/errors"
	"github.com/spf13/viper"
)

// SecureWebsocket holds the optional TLS material for the listener. Both
// fields must be set together or both left empty.
type SecureWebsocket struct {
	CertificatePath string `mapstructure:"certificate_path"`
	PrivateKeyPath  string `mapstructure:"private_key_path"`
}

// Config is the bridge's effective configuration: the recognized listener
// and TLS options plus the watchdog/log-level additions.
type Config struct {
	WebsocketPort   string          `mapstructure:"websocket_port"`
	SecureWebsocket SecureWebsocket `mapstructure:"secure_websocket"`

	// Path and Required are plugin lifecycle markers inherited from the
	// fabric's own plugin manifest format; the bridge core accepts and
	// echoes them back through the admin "config" snapshot but never
	// interprets them itself.
	Path     any  `mapstructure:"__path__"`
	Required bool `mapstructure:"__required__"`

	WatchdogPeriod time.Duration `mapstructure:"watchdog_period"`
	LogLevel       string        `mapstructure:"log_level"`
}

const (
	defaultWebsocketPort  = "[::]:10000"
	defaultWatchdogPeriod = time.Second
	defaultLogLevel       = "info"
	envPrefix             = "ZENOH_BRIDGE"
)

// Load reads configuration from path (if non-empty) plus ZENOH_BRIDGE_*
// environment overrides, applying defaults for anything left unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("websocket_port", defaultWebsocketPort)
	v.SetDefault("watchdog_period", defaultWatchdogPeriod)
	v.SetDefault("log_level", defaultLogLevel)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "config: read %s", path)
		}
	}
	normalizeWebsocketPort(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Annotate(err, "config: unmarshal")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalizeWebsocketPort rewrites a bare port number into a qualified
// "[::]:<port>" listen address. A config file may spell websocket_port as
// either a JSON/YAML number or a numeric-only string; either form binds to
// every interface on that port, matching the fabric's own admin-space
// convention for an unqualified port.
func normalizeWebsocketPort(v *viper.Viper) {
	switch raw := v.Get("websocket_port").(type) {
	case int:
		v.Set("websocket_port", fmt.Sprintf("[::]:%d", raw))
	case int64:
		v.Set("websocket_port", fmt.Sprintf("[::]:%d", raw))
	case float64:
		v.Set("websocket_port", fmt.Sprintf("[::]:%d", int64(raw)))
	case string:
		if _, err := strconv.Atoi(raw); err == nil {
			v.Set("websocket_port", fmt.Sprintf("[::]:%s", raw))
		}
	}
}

func (c *Config) validate() error {
	hasCert := c.SecureWebsocket.CertificatePath != ""
	hasKey := c.SecureWebsocket.PrivateKeyPath != ""
	if hasCert != hasKey {
		return errors.New("config: secure_websocket.certificate_path and private_key_path must be set together")
	}
	return nil
}

// TLSEnabled reports whether the listener should terminate TLS.
func (c *Config) TLSEnabled() bool {
	return c.SecureWebsocket.CertificatePath != "" && c.SecureWebsocket.PrivateKeyPath != ""
}

// AsMap renders the effective configuration for the admin directory's
// "config" snapshot.
func (c *Config) AsMap() map[string]any {
	return map[string]any{
		"websocket_port": c.WebsocketPort,
		"secure_websocket": map[string]any{
			"certificate_path": c.SecureWebsocket.CertificatePath,
			"private_key_path": c.SecureWebsocket.PrivateKeyPath,
		},
		"__path__":        c.Path,
		"__required__":    c.Required,
		"watchdog_period": c.WatchdogPeriod.String(),
		"log_level":       c.LogLevel,
	}
}
