package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is constructed once
// at startup and injected into component constructors; nothing reads
// ambient state after Load returns.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Relay    RelayConfig    `yaml:"relay" mapstructure:"relay"`
	Sheet    SheetConfig    `yaml:"sheet" mapstructure:"sheet"`
	Drive    DriveConfig    `yaml:"drive" mapstructure:"drive"`
	Legis    LegisConfig    `yaml:"legis" mapstructure:"legis"`
	PDF      PDFConfig      `yaml:"pdf" mapstructure:"pdf"`
	Context  ContextConfig  `yaml:"context" mapstructure:"context"`
	Gemini   GeminiConfig   `yaml:"gemini" mapstructure:"gemini"`
	Feeds    FeedsConfig    `yaml:"feeds" mapstructure:"feeds"`
	Agenda   AgendaConfig   `yaml:"agenda" mapstructure:"agenda"`
	Autosave AutosaveConfig `yaml:"autosave" mapstructure:"autosave"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the bill store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// RelayConfig configures the CORS relay fallback chain. Order lists relay
// names by priority; each name must be one of "allorigins", "corsproxy".
type RelayConfig struct {
	Order         []string `yaml:"order" mapstructure:"order"`
	AllOriginsURL string   `yaml:"allorigins_url" mapstructure:"allorigins_url"`
	CORSProxyURL  string   `yaml:"corsproxy_url" mapstructure:"corsproxy_url"`
	RatePerSec    float64  `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SheetConfig configures the master spreadsheet export.
type SheetConfig struct {
	ExportURL     string `yaml:"export_url" mapstructure:"export_url"`
	Format        string `yaml:"format" mapstructure:"format"` // csv (default) or xlsx
	StorageDomain string `yaml:"storage_domain" mapstructure:"storage_domain"`
	SponsorName   string `yaml:"sponsor_name" mapstructure:"sponsor_name"`
}

// DriveConfig configures the cloud-folder listing endpoint.
type DriveConfig struct {
	ScriptURL string `yaml:"script_url" mapstructure:"script_url"`
	Secret    string `yaml:"secret" mapstructure:"secret"`
}

// LegisConfig configures the legislative web service.
type LegisConfig struct {
	BaseURL      string   `yaml:"base_url" mapstructure:"base_url"`
	Biennium     string   `yaml:"biennium" mapstructure:"biennium"`
	SummaryURL   string   `yaml:"summary_url" mapstructure:"summary_url"`
	TrustedHosts []string `yaml:"trusted_hosts" mapstructure:"trusted_hosts"`
}

// PDFConfig configures PDF text extraction.
type PDFConfig struct {
	PageCap int `yaml:"page_cap" mapstructure:"page_cap"`
}

// ContextConfig configures LLM context assembly bounds.
type ContextConfig struct {
	PerDocCap  int `yaml:"per_doc_cap" mapstructure:"per_doc_cap"`
	TotalCap   int `yaml:"total_cap" mapstructure:"total_cap"`
	MinContent int `yaml:"min_content" mapstructure:"min_content"`
}

// GeminiConfig holds generative-language API settings.
type GeminiConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	Model         string `yaml:"model" mapstructure:"model"`
	MaxAttempts   int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffMillis int    `yaml:"backoff_millis" mapstructure:"backoff_millis"`
}

// FeedSource is one monitored news/RSS feed.
type FeedSource struct {
	URL      string `yaml:"url" mapstructure:"url"`
	Name     string `yaml:"name" mapstructure:"name"`
	Category string `yaml:"category" mapstructure:"category"`
}

// FeedsConfig configures the feed monitor.
type FeedsConfig struct {
	APIURL  string       `yaml:"api_url" mapstructure:"api_url"`
	Sources []FeedSource `yaml:"sources" mapstructure:"sources"`
}

// AgendaConfig configures committee meeting lookups.
type AgendaConfig struct {
	BaseURL    string   `yaml:"base_url" mapstructure:"base_url"`
	Committees []string `yaml:"committees" mapstructure:"committees"`
	WindowDays int      `yaml:"window_days" mapstructure:"window_days"`
}

// AutosaveConfig configures debounced persistence of workspace edits.
type AutosaveConfig struct {
	QuietMillis int `yaml:"quiet_millis" mapstructure:"quiet_millis"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VANTAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "vantage.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("relay.order", []string{"allorigins", "corsproxy"})
	v.SetDefault("relay.allorigins_url", "https://api.allorigins.win/get")
	v.SetDefault("relay.corsproxy_url", "https://corsproxy.io/")
	v.SetDefault("relay.rate_per_sec", 4)
	v.SetDefault("relay.timeout_secs", 30)
	v.SetDefault("sheet.format", "csv")
	v.SetDefault("sheet.storage_domain", "drive.google.com")
	v.SetDefault("legis.base_url", "https://wslwebservices.leg.wa.gov")
	v.SetDefault("legis.trusted_hosts", []string{"leg.wa.gov", "lawfilesext.leg.wa.gov"})
	v.SetDefault("pdf.page_cap", 10)
	v.SetDefault("context.per_doc_cap", 3000)
	v.SetDefault("context.total_cap", 24000)
	v.SetDefault("context.min_content", 50)
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.max_attempts", 3)
	v.SetDefault("gemini.backoff_millis", 1000)
	v.SetDefault("feeds.api_url", "https://api.rss2json.com/v1/api.json")
	v.SetDefault("agenda.base_url", "https://wslwebservices.leg.wa.gov")
	v.SetDefault("agenda.window_days", 7)
	v.SetDefault("autosave.quiet_millis", 1000)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
