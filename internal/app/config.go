package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"feedsync/internal/domain"
	"feedsync/internal/infra/push"
)

const envPrefix = "FEEDSYNC"

// Session backends.
const (
	SessionBackendMemory  = "memory"
	SessionBackendFile    = "file"
	SessionBackendKeyring = "keyring"
)

type Config struct {
	API           APIConfig
	Push          PushConfig
	Session       SessionConfig
	Alert         AlertConfig
	Observability ObservabilityConfig
	Feed          FeedConfig
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type PushConfig struct {
	URL               string
	Heartbeat         time.Duration
	PongWait          time.Duration
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration
	HandshakeTimeout  time.Duration
}

type SessionConfig struct {
	Backend        string
	TokenFile      string
	KeyringService string
	KeyringDir     string
}

type AlertConfig struct {
	Enabled bool
}

type ObservabilityConfig struct {
	ListenAddress string
	Enabled       bool
}

type FeedConfig struct {
	PageSize int
}

type rawConfig struct {
	API           rawAPIConfig           `mapstructure:"api" yaml:"api"`
	Push          rawPushConfig          `mapstructure:"push" yaml:"push"`
	Session       rawSessionConfig       `mapstructure:"session" yaml:"session"`
	Alert         rawAlertConfig         `mapstructure:"alert" yaml:"alert"`
	Observability rawObservabilityConfig `mapstructure:"observability" yaml:"observability"`
	Feed          rawFeedConfig          `mapstructure:"feed" yaml:"feed"`
}

type rawAPIConfig struct {
	BaseURL        string `mapstructure:"baseURL" yaml:"baseURL"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds" yaml:"timeoutSeconds"`
}

type rawPushConfig struct {
	URL                      string `mapstructure:"url" yaml:"url"`
	HeartbeatSeconds         int    `mapstructure:"heartbeatSeconds" yaml:"heartbeatSeconds"`
	PongWaitSeconds          int    `mapstructure:"pongWaitSeconds" yaml:"pongWaitSeconds"`
	ReconnectDelaySeconds    int    `mapstructure:"reconnectDelaySeconds" yaml:"reconnectDelaySeconds"`
	ReconnectMaxDelaySeconds int    `mapstructure:"reconnectMaxDelaySeconds" yaml:"reconnectMaxDelaySeconds"`
	HandshakeTimeoutSeconds  int    `mapstructure:"handshakeTimeoutSeconds" yaml:"handshakeTimeoutSeconds"`
}

type rawSessionConfig struct {
	Backend        string `mapstructure:"backend" yaml:"backend"`
	TokenFile      string `mapstructure:"tokenFile" yaml:"tokenFile"`
	KeyringService string `mapstructure:"keyringService" yaml:"keyringService"`
}

type rawAlertConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

type rawObservabilityConfig struct {
	ListenAddress string `mapstructure:"listenAddress" yaml:"listenAddress"`
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
}

type rawFeedConfig struct {
	PageSize int `mapstructure:"pageSize" yaml:"pageSize"`
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setConfigDefaults(v)
	return v
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("api.baseURL", domain.DefaultAPIBaseURL)
	v.SetDefault("api.timeoutSeconds", domain.DefaultAPITimeoutSeconds)
	v.SetDefault("push.url", "")
	v.SetDefault("push.heartbeatSeconds", domain.DefaultHeartbeatSeconds)
	v.SetDefault("push.pongWaitSeconds", domain.DefaultPongWaitSeconds)
	v.SetDefault("push.reconnectDelaySeconds", domain.DefaultReconnectDelaySeconds)
	v.SetDefault("push.reconnectMaxDelaySeconds", domain.DefaultReconnectMaxDelaySeconds)
	v.SetDefault("push.handshakeTimeoutSeconds", domain.DefaultHandshakeTimeoutSeconds)
	v.SetDefault("session.backend", domain.DefaultSessionBackend)
	v.SetDefault("session.tokenFile", defaultStatePath("token"))
	v.SetDefault("session.keyringService", domain.DefaultKeyringService)
	v.SetDefault("alert.enabled", domain.DefaultAlertEnabled)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("observability.enabled", domain.DefaultObservabilityEnabled)
	v.SetDefault("feed.pageSize", domain.DefaultPageSize)
}

// LoadConfig reads path (optional) and FEEDSYNC_* environment overrides.
func LoadConfig(path string) (Config, error) {
	v := newConfigViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return normalizeConfig(raw)
}

// WriteDefaultConfig writes the default settings as YAML to path. An existing
// file is left alone unless overwrite is set.
func WriteDefaultConfig(path string, overwrite bool) error {
	if path == "" {
		return errors.New("config path is required")
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}
	v := newConfigViper()
	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func normalizeConfig(raw rawConfig) (Config, error) {
	var problems []string

	baseURL := strings.TrimRight(strings.TrimSpace(raw.API.BaseURL), "/")
	if u, err := url.Parse(baseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("api.baseURL %q must be an http(s) url", raw.API.BaseURL))
	}

	pushURL := strings.TrimSpace(raw.Push.URL)
	if pushURL == "" {
		pushURL = push.EndpointFromAPI(baseURL)
	} else if u, err := url.Parse(pushURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		problems = append(problems, fmt.Sprintf("push.url %q must be a ws(s) url", raw.Push.URL))
	}

	positive := []struct {
		key   string
		value int
	}{
		{"api.timeoutSeconds", raw.API.TimeoutSeconds},
		{"push.heartbeatSeconds", raw.Push.HeartbeatSeconds},
		{"push.pongWaitSeconds", raw.Push.PongWaitSeconds},
		{"push.reconnectDelaySeconds", raw.Push.ReconnectDelaySeconds},
		{"push.reconnectMaxDelaySeconds", raw.Push.ReconnectMaxDelaySeconds},
		{"push.handshakeTimeoutSeconds", raw.Push.HandshakeTimeoutSeconds},
	}
	for _, field := range positive {
		if field.value <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive", field.key))
		}
	}
	if raw.Push.ReconnectMaxDelaySeconds < raw.Push.ReconnectDelaySeconds {
		problems = append(problems, "push.reconnectMaxDelaySeconds must be >= push.reconnectDelaySeconds")
	}
	if raw.Push.PongWaitSeconds > 0 && raw.Push.PongWaitSeconds <= raw.Push.HeartbeatSeconds {
		problems = append(problems, "push.pongWaitSeconds must exceed push.heartbeatSeconds")
	}

	backend := strings.ToLower(strings.TrimSpace(raw.Session.Backend))
	switch backend {
	case SessionBackendMemory, SessionBackendFile, SessionBackendKeyring:
	default:
		problems = append(problems, fmt.Sprintf("session.backend %q must be memory, file or keyring", raw.Session.Backend))
	}
	if backend == SessionBackendFile && strings.TrimSpace(raw.Session.TokenFile) == "" {
		problems = append(problems, "session.tokenFile is required for the file backend")
	}

	if raw.Feed.PageSize < 1 || raw.Feed.PageSize > domain.MaxPageSize {
		problems = append(problems, fmt.Sprintf("feed.pageSize must be within 1..%d", domain.MaxPageSize))
	}

	if len(problems) > 0 {
		return Config{}, domain.E(domain.CodeInvalidArgument, "config", strings.Join(problems, "; "), nil)
	}

	return Config{
		API: APIConfig{
			BaseURL: baseURL,
			Timeout: seconds(raw.API.TimeoutSeconds),
		},
		Push: PushConfig{
			URL:               pushURL,
			Heartbeat:         seconds(raw.Push.HeartbeatSeconds),
			PongWait:          seconds(raw.Push.PongWaitSeconds),
			ReconnectDelay:    seconds(raw.Push.ReconnectDelaySeconds),
			ReconnectMaxDelay: seconds(raw.Push.ReconnectMaxDelaySeconds),
			HandshakeTimeout:  seconds(raw.Push.HandshakeTimeoutSeconds),
		},
		Session: SessionConfig{
			Backend:        backend,
			TokenFile:      expandHome(raw.Session.TokenFile),
			KeyringService: raw.Session.KeyringService,
			KeyringDir:     defaultStatePath("keyring"),
		},
		Alert: AlertConfig{Enabled: raw.Alert.Enabled},
		Observability: ObservabilityConfig{
			ListenAddress: raw.Observability.ListenAddress,
			Enabled:       raw.Observability.Enabled,
		},
		Feed: FeedConfig{PageSize: raw.Feed.PageSize},
	}, nil
}

// DefaultConfigPath is where the CLI looks for a config file when none is
// given.
func DefaultConfigPath() string {
	return defaultStatePath("config.yaml")
}

func defaultStatePath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".feedsync", name)
	}
	return filepath.Join(dir, "feedsync", name)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/"))
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
