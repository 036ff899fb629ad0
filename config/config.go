package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"gmocoin-bot/internal/constants"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds process-wide configuration.
type Config struct {
	APIKey       string
	APISecret    string
	RESTHost     string
	WSPublicURL  string
	WSPrivateURL string
	PongWait     int64
	PingPeriod   int64
	Symbol       string
	// Chart
	CandlePeriod   time.Duration
	ChartMaxLength int
	RSIPeriod      int
	// Channel manager and periodic jobs
	SubscribeInterval time.Duration
	LivenessInterval  time.Duration
	TokenInterval     time.Duration
	SweepInterval     time.Duration
	RefreshInterval   time.Duration
	StatusInterval    time.Duration
	StatsInterval     time.Duration
	StreamInterval    time.Duration
	OrderLimitTime    time.Duration
	MaxCancelIDs      int
	// REST call limiter, calls per second per verb
	CallLimit int
	Leverage  int
	// Paper trading
	Simulation   bool
	PaperBalance float64
	// Strategy definitions
	BotConfigPath string
	Debug         bool
	// Logging configuration
	LogFile       string
	LogMaxSize    int // megabytes
	LogMaxBackups int // number of files
	LogMaxAge     int // days
	LogCompress   bool
	LogLevel      int // 0=DEBUG, 1=INFO, 2=WARNING, 3=ERROR
	// Status server configuration
	StatusAddr string
	// Daemon configuration
	DaemonMode bool
}

// LoadEnvFile loads path (default ".env") into the environment if it exists.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from environment variables or uses defaults
func LoadConfig() *Config {
	return &Config{
		APIKey:       getEnv("GMO_API_KEY", ""),
		APISecret:    getEnv("GMO_API_SECRET", ""),
		RESTHost:     getEnv("GMO_REST_HOST", "https://api.coin.z.com"),
		WSPublicURL:  getEnv("GMO_WS_PUBLIC", "wss://api.coin.z.com/ws/public/v1"),
		WSPrivateURL: getEnv("GMO_WS_PRIVATE", "wss://api.coin.z.com/ws/private/v1"),
		PongWait:     70,
		PingPeriod:   30,
		Symbol:       getEnv("SYMBOL", constants.DefaultSymbol),

		CandlePeriod:   getEnvAsDuration("CANDLE_PERIOD", time.Minute),
		ChartMaxLength: getEnvAsInt("CHART_MAX_LENGTH", constants.DefaultChartLength),
		RSIPeriod:      getEnvAsInt("RSI_PERIOD", constants.DefaultRSIPeriod),

		// the exchange accepts one subscribe per second; stay well clear of it
		SubscribeInterval: getEnvAsDuration("SUBSCRIBE_INTERVAL", 3*time.Second),
		LivenessInterval:  getEnvAsDuration("LIVENESS_INTERVAL", 5*time.Second),
		TokenInterval:     getEnvAsDuration("TOKEN_INTERVAL", 50*time.Minute),
		SweepInterval:     getEnvAsDuration("SWEEP_INTERVAL", time.Minute),
		RefreshInterval:   getEnvAsDuration("REFRESH_INTERVAL", 5*time.Minute),
		StatusInterval:    getEnvAsDuration("STATUS_INTERVAL", time.Minute),
		StatsInterval:     getEnvAsDuration("STATS_INTERVAL", 10*time.Minute),
		StreamInterval:    getEnvAsDuration("STREAM_INTERVAL", 5*time.Second),
		OrderLimitTime:    getEnvAsDuration("ORDER_LIMIT_TIME", constants.DefaultOrderLimitS*time.Second),
		MaxCancelIDs:      getEnvAsInt("MAX_CANCEL_IDS", constants.DefaultMaxCancelIDs),
		CallLimit:         getEnvAsInt("CALL_LIMIT", 3),
		Leverage:          getEnvAsInt("LEVERAGE", constants.DefaultLeverage),

		Simulation:   getEnvAsBool("SIMULATION", false),
		PaperBalance: getEnvAsFloat("PAPER_BALANCE", 100000),

		BotConfigPath: getEnv("BOT_CONFIG", "configs/bots.json"),
		Debug:         getEnvAsBool("DEBUG", false),
		// Logging defaults
		LogFile:       getEnv("LOG_FILE", "logs/gmocoin_bot.log"),
		LogMaxSize:    10, // 10 MB
		LogMaxBackups: 5,  // 5 backup files
		LogMaxAge:     30, // 30 days
		LogCompress:   true,
		LogLevel:      getEnvAsInt("LOG_LEVEL", 1), // INFO level
		// Status server defaults
		StatusAddr: getEnv("STATUS_ADDR", "127.0.0.1:6061"),
		// Daemon defaults
		DaemonMode: getEnvAsBool("DAEMON_MODE", false),
	}
}

// Validate checks the values the runtime relies on.
func (c *Config) Validate() error {
	var problems []string
	if c.CandlePeriod <= 0 {
		problems = append(problems, "CANDLE_PERIOD must be positive")
	}
	if c.RSIPeriod <= 0 {
		problems = append(problems, "RSI_PERIOD must be positive")
	}
	// momentum keeps stepping only while the raw series is longer than its period
	if c.ChartMaxLength <= c.RSIPeriod {
		problems = append(problems, fmt.Sprintf("CHART_MAX_LENGTH (%d) must exceed RSI_PERIOD (%d)", c.ChartMaxLength, c.RSIPeriod))
	}
	if c.SubscribeInterval < time.Second {
		problems = append(problems, "SUBSCRIBE_INTERVAL must be at least 1s")
	}
	if c.Leverage <= 0 {
		problems = append(problems, "LEVERAGE must be positive")
	}
	if c.MaxCancelIDs <= 0 {
		problems = append(problems, "MAX_CANCEL_IDS must be positive")
	}
	if !c.Simulation && (c.APIKey == "" || c.APISecret == "") {
		problems = append(problems, "GMO_API_KEY and GMO_API_SECRET are required unless SIMULATION is set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// getEnvAsBool gets an environment variable as a boolean value
func getEnvAsBool(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	// Convert string to bool - "true", "1", "yes", "on" are considered true
	switch value {
	case "true", "1", "yes", "on", "True", "TRUE":
		return true
	default:
		return false
	}
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvAsInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvAsDuration accepts Go durations ("90s") and bare seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
