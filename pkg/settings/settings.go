// Package settings resolves parley's configuration from flags, PARLEY_*
// environment variables and an optional YAML config file, in that order of
// precedence.
package settings

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "PARLEY"

// Keys shared by flags, env and config file.
const (
	KeyConfig      = "config"
	KeyProfile     = "profile"
	KeyProfilesDir = "profiles-dir"
	KeyBaseURL     = "base-url"
	KeySessionID   = "session-id"
	KeyDomains     = "domains"
	KeyDomain      = "domain"
	KeyUseDomain   = "use-domain"
	KeyTimeout     = "timeout"
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"
	KeyLogFile     = "log-file"
	KeyWithCaller  = "with-caller"
)

type Settings struct {
	Profile     string
	ProfilesDir string
	BaseURL     string
	SessionID   string
	// Domains lists the domain tags offered by interactive pickers.
	Domains   []string
	Domain    string
	UseDomain bool
	Timeout   time.Duration

	LogLevel   string
	LogFormat  string
	LogFile    string
	WithCaller bool
}

// AddFlags registers the persistent flags on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.String(KeyConfig, "", "config file (default $XDG_CONFIG_HOME/parley/config.yaml)")
	fs.String(KeyProfile, "user", "endpoint profile (user, conversation or one from --profiles-dir)")
	fs.String(KeyProfilesDir, "", "directory with extra endpoint profile YAML files (default $XDG_CONFIG_HOME/parley/profiles)")
	fs.String(KeyBaseURL, "", "override the profile's backend base URL")
	fs.String(KeySessionID, "", "resume an existing conversation or user ID")
	fs.StringSlice(KeyDomains, []string{"healthcare", "finance", "customer_service"}, "domain tags offered by the domain picker")
	fs.String(KeyDomain, "", "domain tag sent with messages")
	fs.Bool(KeyUseDomain, false, "apply domain context")
	fs.Duration(KeyTimeout, 0, "per-request timeout (0 waits for the backend indefinitely)")
	fs.String(KeyLogLevel, "info", "log level (trace, debug, info, warn, error)")
	fs.String(KeyLogFormat, "text", "log format (text, json)")
	fs.String(KeyLogFile, "", "write logs to this file")
	fs.Bool(KeyWithCaller, false, "log caller information")
}

// ConfigDir is the directory holding config.yaml and profiles/.
func ConfigDir() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return filepath.Join(d, "parley")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parley"
	}
	return filepath.Join(home, ".config", "parley")
}

// Load binds fs to a fresh viper instance and decodes the result.
func Load(fs *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfg := v.GetString(KeyConfig); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", cfg)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	s := &Settings{
		Profile:     v.GetString(KeyProfile),
		ProfilesDir: v.GetString(KeyProfilesDir),
		BaseURL:     v.GetString(KeyBaseURL),
		SessionID:   v.GetString(KeySessionID),
		Domains:     v.GetStringSlice(KeyDomains),
		Domain:      v.GetString(KeyDomain),
		UseDomain:   v.GetBool(KeyUseDomain),
		Timeout:     v.GetDuration(KeyTimeout),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   v.GetString(KeyLogFormat),
		LogFile:     v.GetString(KeyLogFile),
		WithCaller:  v.GetBool(KeyWithCaller),
	}
	if s.ProfilesDir == "" {
		s.ProfilesDir = filepath.Join(ConfigDir(), "profiles")
	}
	if s.Timeout < 0 {
		return nil, errors.Errorf("timeout must not be negative, got %s", s.Timeout)
	}
	return s, nil
}
