package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	General GeneralConfig `toml:"general"`
	Oracles OraclesConfig `toml:"oracles"`
	Social  SocialConfig  `toml:"social"`
	Summary SummaryConfig `toml:"summary"`
}

type GeneralConfig struct {
	LogLevel string `toml:"log_level"`
	LogDir   string `toml:"log_dir"`
	EnvFile  string `toml:"env_file"`
}

type OraclesConfig struct {
	BaseURL       string   `toml:"base_url"`
	ProfileURL    string   `toml:"profile_url"`
	Timeout       Duration `toml:"timeout"`
	ListStatus    string   `toml:"list_status"`
	ListLimit     int      `toml:"list_limit"`
	ForecastsPath string   `toml:"forecasts_path"`
}

type SocialConfig struct {
	AuthorizeURL    string   `toml:"authorize_url"`
	TokenURL        string   `toml:"token_url"`
	APIURL          string   `toml:"api_url"`
	StatusURLPrefix string   `toml:"status_url_prefix"`
	RedirectURI     string   `toml:"redirect_uri"`
	Scopes          []string `toml:"scopes"`
	State           string   `toml:"state"`
	VerifierPath    string   `toml:"verifier_path"`
	TokenPath       string   `toml:"token_path"`
	Timeout         Duration `toml:"timeout"`
}

type SummaryConfig struct {
	MaxMarkets int    `toml:"max_markets"`
	Footer     string `toml:"footer"`
}

// Duration wraps time.Duration for TOML unmarshaling.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Load reads the TOML file at path over DefaultConfig. A missing file is not
// an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			LogDir:   ".",
			EnvFile:  ".env",
		},
		Oracles: OraclesConfig{
			BaseURL:       "https://sjtxbkmmicwmkqrmyqln.supabase.co/functions/v1",
			ProfileURL:    "https://oracles.run/agents/clawbot-predictor",
			Timeout:       Duration{30 * time.Second},
			ListStatus:    "open",
			ListLimit:     100,
			ForecastsPath: "forecasts.toml",
		},
		Social: SocialConfig{
			AuthorizeURL:    "https://x.com/i/oauth2/authorize",
			TokenURL:        "https://api.x.com/2/oauth2/token",
			APIURL:          "https://api.x.com",
			StatusURLPrefix: "https://x.com/oraclesrun/status/",
			RedirectURI:     "https://webhook.site/dc980780-809c-4ec9-bda2-2dccd53e5f40",
			Scopes:          []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
			State:           "auth",
			VerifierPath:    ".pkce_verifier.txt",
			TokenPath:       ".twitter_oauth2_tokens.json",
			Timeout:         Duration{30 * time.Second},
		},
		Summary: SummaryConfig{
			MaxMarkets: 6,
			Footer:     "@oracles_run Sandbox S1 🏆\n#oraclesrun #polymarket #AI",
		},
	}
}

// SlogLevel maps general.log_level onto a slog level. Unknown values fall
// back to info.
func (g GeneralConfig) SlogLevel() slog.Level {
	switch strings.ToLower(g.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Secrets holds credentials that never live in config.toml.
type Secrets struct {
	AgentID      string
	APIKey       string
	ClientID     string
	ClientSecret string
}

// LoadSecrets loads envFile into the process environment (existing variables
// win) and reads the credentials from it. A missing env file is ignored.
func LoadSecrets(envFile string) (Secrets, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Secrets{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return Secrets{
		AgentID:      os.Getenv("ORACLES_AGENT_ID"),
		APIKey:       os.Getenv("ORACLES_API_KEY"),
		ClientID:     os.Getenv("TWITTER_CLIENT_ID"),
		ClientSecret: os.Getenv("TWITTER_CLIENT_SECRET"),
	}, nil
}

// RequireOracles reports whether the market API credentials are present.
func (s Secrets) RequireOracles() error {
	if s.AgentID == "" || s.APIKey == "" {
		return errors.New("ORACLES_AGENT_ID and ORACLES_API_KEY required in .env")
	}
	return nil
}

// RequireClient reports whether the X app credentials are present. The
// secret is only needed for the token exchange.
func (s Secrets) RequireClient(needSecret bool) error {
	if s.ClientID == "" {
		return errors.New("TWITTER_CLIENT_ID not found in .env")
	}
	if needSecret && s.ClientSecret == "" {
		return errors.New("TWITTER_CLIENT_SECRET not found in .env")
	}
	return nil
}
