// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration. A single value is built at
// startup and handed to every component that needs it.
type Config struct {
	Logger      LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	Browser     BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	Agent       AgentConfig      `mapstructure:"agent" yaml:"agent"`
	Screenshots ScreenshotConfig `mapstructure:"screenshots" yaml:"screenshots"`
	LLM         LLMConfig        `mapstructure:"llm" yaml:"llm"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
	// Transcript echoes every prompt/response pair to the console.
	Transcript bool `mapstructure:"transcript" yaml:"transcript"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AutoLogFile is the log_file sentinel that selects a timestamped file under logs/.
const AutoLogFile = "auto"

// BrowserConfig holds settings for the persistent browser profile.
type BrowserConfig struct {
	Headless      bool           `mapstructure:"headless" yaml:"headless"`
	UserDataDir   string         `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	ExtensionPath string         `mapstructure:"extension_path" yaml:"extension_path"`
	StartURL      string         `mapstructure:"start_url" yaml:"start_url"`
	Args          []string       `mapstructure:"args" yaml:"args"`
	Viewport      map[string]int `mapstructure:"viewport" yaml:"viewport"`
	// ActionTimeout bounds a single browser primitive (key press, evaluation, capture).
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// ViewportSize returns the configured viewport, falling back to 700x800.
func (b BrowserConfig) ViewportSize() (width, height int) {
	width, height = 700, 800
	if w, ok := b.Viewport["width"]; ok && w > 0 {
		width = w
	}
	if h, ok := b.Viewport["height"]; ok && h > 0 {
		height = h
	}
	return width, height
}

// ActorMode selects how the actor's decision is obtained.
type ActorMode string

const (
	// ModeText asks for free text and scrapes the action with regular expressions.
	ModeText ActorMode = "text"
	// ModeToolCall asks for a single schema-validated tool invocation.
	ModeToolCall ActorMode = "toolcall"
)

// TableVariant names the table-extraction tool offered to the actor.
type TableVariant string

const (
	TableAnalyze TableVariant = "analyze_table"
	TableParse   TableVariant = "parse_table_data"
)

// AgentConfig holds the round loop parameters.
type AgentConfig struct {
	Task        string        `mapstructure:"task" yaml:"task"`
	Rounds      int           `mapstructure:"rounds" yaml:"rounds"`
	Mode        ActorMode     `mapstructure:"mode" yaml:"mode"`
	ToolSet     TableVariant  `mapstructure:"tool_set" yaml:"tool_set"`
	EnableInput bool          `mapstructure:"enable_input" yaml:"enable_input"`
	HintKey     string        `mapstructure:"hint_key" yaml:"hint_key"`
	HintWait    time.Duration `mapstructure:"hint_wait" yaml:"hint_wait"`
	InitialWait time.Duration `mapstructure:"initial_wait" yaml:"initial_wait"`
	SettleTime  time.Duration `mapstructure:"settle_time" yaml:"settle_time"`
	ScrollDelta int           `mapstructure:"scroll_delta" yaml:"scroll_delta"`
	// ReplayObserver and ReplayActor swap the live models for recorded responses.
	ReplayObserver bool          `mapstructure:"replay_observer" yaml:"replay_observer"`
	ReplayActor    bool          `mapstructure:"replay_actor" yaml:"replay_actor"`
	Locator        LocatorConfig `mapstructure:"locator" yaml:"locator"`
}

// LocatorConfig configures grid based coordinate picking for unlabeled elements.
type LocatorConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Columns int  `mapstructure:"columns" yaml:"columns"`
	Rows    int  `mapstructure:"rows" yaml:"rows"`
}

// ScreenshotConfig controls where captures are written and how they are shrunk
// before being sent to a model.
type ScreenshotConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir"`
	FullPage  bool   `mapstructure:"full_page" yaml:"full_page"`
	Quality   int    `mapstructure:"quality" yaml:"quality"`
	Compress  bool   `mapstructure:"compress" yaml:"compress"`
	MaxWidth  int    `mapstructure:"max_width" yaml:"max_width"`
	MaxHeight int    `mapstructure:"max_height" yaml:"max_height"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini    LLMProvider = "gemini"
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
	// ProviderReplay serves recorded responses and needs no credentials.
	ProviderReplay LLMProvider = "replay"
)

// LLMConfig assigns a model to each role of the loop.
type LLMConfig struct {
	RequestsPerMinute float64        `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Observer          LLMModelConfig `mapstructure:"observer" yaml:"observer"`
	Actor             LLMModelConfig `mapstructure:"actor" yaml:"actor"`
	Table             LLMModelConfig `mapstructure:"table" yaml:"table"`
	Locator           LLMModelConfig `mapstructure:"locator" yaml:"locator"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider      LLMProvider       `mapstructure:"provider" yaml:"provider"`
	Model         string            `mapstructure:"model" yaml:"model"`
	APIKey        string            `mapstructure:"api_key" yaml:"api_key"`
	Endpoint      string            `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout    time.Duration     `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature   float32           `mapstructure:"temperature" yaml:"temperature"`
	TopP          float32           `mapstructure:"top_p" yaml:"top_p"`
	TopK          int               `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens     int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	SafetyFilters map[string]string `mapstructure:"safety_filters" yaml:"safety_filters"`
}

// apiKeyEnv lists the conventional environment variables per provider, in lookup order.
var apiKeyEnv = map[LLMProvider][]string{
	ProviderOpenAI:    {"OPENAI_API_KEY"},
	ProviderGemini:    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY"},
}

// resolveAPIKey fills an empty APIKey from the provider's conventional variable.
func (m *LLMModelConfig) resolveAPIKey(getenv func(string) string) {
	if m.APIKey != "" {
		return
	}
	for _, name := range apiKeyEnv[m.Provider] {
		if key := getenv(name); key != "" {
			m.APIKey = key
			return
		}
	}
}

// DefaultTask is the booking question the scripts were written around.
const DefaultTask = `Find and name outside tennis courts that are free for 1 hour today between 17:00 and 19:00. The process is described as follows:
The video demonstrates the online booking process for a tennis court at the Sportclub SAFO Frankfurt e.V.

1. **Navigate to the "Freiplätze" (Available Courts) page:** The user starts on the homepage of the Sportclub SAFO Frankfurt e.V. and clicks on the "Freiplätze" tab in the top navigation bar.
2. **View available time slots:** The "Freiplätze" page displays a calendar with available time slots for each tennis court (P1, P2, P3). The current date is selected, showing the available time slots for that day.
3. **Select a time slot:** The user scrolls down to view the available time slots and clicks on the desired time slot, which is 18:00-18:30 on Court P1.
`

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "courtpilot")
	v.SetDefault("logger.log_file", AutoLogFile)
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.transcript", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.user_data_dir", "~/playwright_user_data")
	v.SetDefault("browser.extension_path", "vimium")
	v.SetDefault("browser.start_url", "https://safo.ebusy.de")
	v.SetDefault("browser.viewport", map[string]int{"width": 700, "height": 800})
	v.SetDefault("browser.action_timeout", "10s")
	v.SetDefault("browser.navigation_timeout", "60s")

	// -- Agent --
	v.SetDefault("agent.task", DefaultTask)
	v.SetDefault("agent.rounds", 5)
	v.SetDefault("agent.mode", string(ModeText))
	v.SetDefault("agent.tool_set", string(TableParse))
	v.SetDefault("agent.enable_input", true)
	v.SetDefault("agent.hint_key", "f")
	v.SetDefault("agent.hint_wait", "1s")
	v.SetDefault("agent.initial_wait", "1s")
	v.SetDefault("agent.settle_time", "3s")
	v.SetDefault("agent.scroll_delta", 600)
	v.SetDefault("agent.replay_observer", false)
	v.SetDefault("agent.replay_actor", false)
	v.SetDefault("agent.locator.enabled", false)
	v.SetDefault("agent.locator.columns", 8)
	v.SetDefault("agent.locator.rows", 8)

	// -- Screenshots --
	v.SetDefault("screenshots.dir", "screenshots")
	v.SetDefault("screenshots.full_page", false)
	v.SetDefault("screenshots.quality", 85)
	v.SetDefault("screenshots.compress", true)
	v.SetDefault("screenshots.max_width", 900)
	v.SetDefault("screenshots.max_height", 635)

	// -- LLM --
	v.SetDefault("llm.requests_per_minute", 0)
	v.SetDefault("llm.observer.provider", string(ProviderOpenAI))
	v.SetDefault("llm.observer.model", "gpt-4o")
	v.SetDefault("llm.observer.api_timeout", "60s")
	v.SetDefault("llm.observer.max_tokens", 1024)
	v.SetDefault("llm.actor.provider", string(ProviderOpenAI))
	v.SetDefault("llm.actor.model", "gpt-4o")
	v.SetDefault("llm.actor.api_timeout", "60s")
	v.SetDefault("llm.actor.max_tokens", 300)
	v.SetDefault("llm.table.provider", string(ProviderGemini))
	v.SetDefault("llm.table.model", "gemini-1.5-flash")
	v.SetDefault("llm.table.api_timeout", "120s")
	v.SetDefault("llm.locator.provider", string(ProviderAnthropic))
	v.SetDefault("llm.locator.model", "claude-3-5-sonnet-20240620")
	v.SetDefault("llm.locator.api_timeout", "60s")
	v.SetDefault("llm.locator.max_tokens", 250)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind the provider keys under the application prefix as well.
	_ = v.BindEnv("llm.observer.api_key", "COURTPILOT_OBSERVER_API_KEY")
	_ = v.BindEnv("llm.actor.api_key", "COURTPILOT_ACTOR_API_KEY")
	_ = v.BindEnv("llm.table.api_key", "COURTPILOT_TABLE_API_KEY")
	_ = v.BindEnv("llm.locator.api_key", "COURTPILOT_LOCATOR_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	for _, m := range []*LLMModelConfig{&cfg.LLM.Observer, &cfg.LLM.Actor, &cfg.LLM.Table, &cfg.LLM.Locator} {
		m.resolveAPIKey(os.Getenv)
	}

	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ExpandPaths resolves a leading ~ in every filesystem path of the configuration.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.Browser.UserDataDir, &c.Browser.ExtensionPath, &c.Screenshots.Dir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent configuration invalid: %w", err)
	}
	if w, h := c.Browser.ViewportSize(); w <= 0 || h <= 0 {
		return fmt.Errorf("browser.viewport must have a positive width and height")
	}
	if c.Screenshots.Dir == "" {
		return fmt.Errorf("screenshots.dir is a required configuration field")
	}
	if c.Screenshots.Quality <= 0 || c.Screenshots.Quality > 100 {
		return fmt.Errorf("screenshots.quality must be between 1 and 100")
	}
	if c.Screenshots.Compress && (c.Screenshots.MaxWidth <= 0 || c.Screenshots.MaxHeight <= 0) {
		return fmt.Errorf("screenshots.max_width and screenshots.max_height must be positive integers")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must not be negative")
	}
	roles := map[string]LLMModelConfig{
		"observer": c.LLM.Observer,
		"actor":    c.LLM.Actor,
		"table":    c.LLM.Table,
	}
	if c.Agent.Locator.Enabled {
		roles["locator"] = c.LLM.Locator
	}
	for role, m := range roles {
		if m.Provider == "" {
			return fmt.Errorf("llm.%s.provider is a required configuration field", role)
		}
	}
	return nil
}

// Validate checks the round loop settings.
func (a *AgentConfig) Validate() error {
	if a.Rounds <= 0 {
		return fmt.Errorf("rounds must be a positive integer")
	}
	if a.ScrollDelta <= 0 {
		return fmt.Errorf("scroll_delta must be a positive integer")
	}
	switch a.Mode {
	case ModeText, ModeToolCall:
	default:
		return fmt.Errorf("mode must be one of [%s, %s], got '%s'", ModeText, ModeToolCall, a.Mode)
	}
	switch a.ToolSet {
	case TableAnalyze, TableParse:
	default:
		return fmt.Errorf("tool_set must be one of [%s, %s], got '%s'", TableAnalyze, TableParse, a.ToolSet)
	}
	if a.SettleTime < 0 || a.HintWait < 0 || a.InitialWait < 0 {
		return fmt.Errorf("wait durations must not be negative")
	}
	if a.Locator.Enabled && (a.Locator.Columns <= 0 || a.Locator.Rows <= 0) {
		return fmt.Errorf("locator.columns and locator.rows must be positive integers")
	}
	return nil
}
