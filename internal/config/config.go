package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hongsw/aligo-sms-mcp-server/internal/aligo"
	"github.com/hongsw/aligo-sms-mcp-server/internal/relay"
)

// RCFileName is the file read from the user's home directory when no path is given.
const RCFileName = ".garakrc"

// envPrefix is accepted in front of every key, e.g. GARAK_ALIGO_API_KEY.
const envPrefix = "GARAK"

// Configuration keys. They double as environment variable names.
const (
	KeyAligoAPIKey   = "ALIGO_API_KEY"
	KeyAligoUserID   = "ALIGO_USER_ID"
	KeyAligoTestMode = "ALIGO_TEST_MODE"
	KeyAligoBaseURL  = "ALIGO_BASE_URL"
	KeyAligoTimeout  = "ALIGO_TIMEOUT"
	KeyGarakAPIKey   = "GARAK_API_KEY"
	KeyRelayBaseURL  = "BASE_URL"
	KeyDebug         = "DEBUG"
)

// Config is the process configuration. It is loaded once at startup and
// passed explicitly to the components that need it.
type Config struct {
	Aligo AligoConfig
	Relay RelayConfig
	Debug bool

	// Source is the rc file that was read, empty when none was found
	Source string
}

// AligoConfig holds the SMS gateway account.
type AligoConfig struct {
	APIKey   string
	UserID   string
	TestMode bool
	BaseURL  string
	Timeout  time.Duration
}

// RelayConfig holds the email relay settings.
type RelayConfig struct {
	APIKey  string
	BaseURL string
}

// Credentials returns the gateway credentials.
func (c *Config) Credentials() aligo.Credentials {
	return aligo.Credentials{
		APIKey:   c.Aligo.APIKey,
		UserID:   c.Aligo.UserID,
		TestMode: c.Aligo.TestMode,
	}
}

// Validate reports missing gateway credentials.
func (c *Config) Validate() error {
	var missing []string
	if c.Aligo.APIKey == "" {
		missing = append(missing, KeyAligoAPIKey)
	}
	if c.Aligo.UserID == "" {
		missing = append(missing, KeyAligoUserID)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing Aligo credentials: %s (set them in ~/%s or the environment)",
			strings.Join(missing, ", "), RCFileName)
	}
	return nil
}

// DefaultPath returns ~/.garakrc, or an empty string if the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, RCFileName)
}

// Load reads configuration from defaults, the rc file at path and the environment,
// in increasing order of precedence.
//
// When path is empty the default ~/.garakrc is used and a missing file is not an
// error. An explicitly given path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault(KeyAligoBaseURL, aligo.DefaultBaseURL)
	v.SetDefault(KeyAligoTimeout, aligo.DefaultTimeout.String())
	v.SetDefault(KeyRelayBaseURL, relay.DefaultBaseURL)
	v.SetDefault(KeyAligoTestMode, "N")
	v.SetDefault(KeyDebug, "false")

	for _, key := range []string{
		KeyAligoAPIKey, KeyAligoUserID, KeyAligoTestMode, KeyAligoBaseURL,
		KeyAligoTimeout, KeyGarakAPIKey, KeyRelayBaseURL, KeyDebug,
	} {
		if err := v.BindEnv(key, envPrefix+"_"+key, key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := &Config{}
	if path != "" {
		read, err := readRCFile(v, path)
		if err != nil && (explicit || !errors.Is(err, os.ErrNotExist)) {
			return nil, err
		}
		if read {
			cfg.Source = path
		}
	}

	timeout, err := time.ParseDuration(v.GetString(KeyAligoTimeout))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyAligoTimeout, err)
	}

	cfg.Aligo = AligoConfig{
		APIKey:   strings.TrimSpace(v.GetString(KeyAligoAPIKey)),
		UserID:   strings.TrimSpace(v.GetString(KeyAligoUserID)),
		TestMode: ParseFlag(v.GetString(KeyAligoTestMode)),
		BaseURL:  v.GetString(KeyAligoBaseURL),
		Timeout:  timeout,
	}
	cfg.Relay = RelayConfig{
		APIKey:  strings.TrimSpace(v.GetString(KeyGarakAPIKey)),
		BaseURL: v.GetString(KeyRelayBaseURL),
	}
	cfg.Debug = ParseFlag(v.GetString(KeyDebug))

	return cfg, nil
}

// readRCFile loads path into v. The file is JSON when it starts with '{',
// otherwise KEY=value lines.
func readRCFile(v *viper.Viper, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return true, nil
	}

	if trimmed[0] == '{' {
		v.SetConfigType("json")
	} else {
		v.SetConfigType("dotenv")
	}

	if err := v.ReadConfig(bytes.NewReader(trimmed)); err != nil {
		return false, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return true, nil
}

// ParseFlag interprets Y/yes/true/1/on (any case) as true.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1", "on":
		return true
	}
	return false
}
