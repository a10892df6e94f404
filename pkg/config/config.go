package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Logger      struct {
		Level     string `yaml:"level" default:"info"`
		Format    string `yaml:"format" default:"console"`
		Output    string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			FlushInterval  time.Duration `yaml:"flush_interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
			Topic          string        `yaml:"topic" default:"quantpull.logs"`
		} `yaml:"collector"`
	} `yaml:"logger"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Storage struct {
		// Any subset of clickhouse, kafka, csv; tables fan out to all of them.
		Backends     []string      `yaml:"backends" default:"[\"csv\"]"`
		BatchSize    int           `yaml:"batch_size" default:"2000"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"5s"`
		CSVDir       string        `yaml:"csv_dir" default:"data"`
	} `yaml:"storage"`
	Kafka struct {
		Brokers     []string `yaml:"brokers"`
		Compression string   `yaml:"compression" default:"snappy"`
		Topics      struct {
			Features  string `yaml:"features" default:"quantpull.features"`
			Sentiment string `yaml:"sentiment" default:"quantpull.sentiment"`
			Articles  string `yaml:"articles" default:"quantpull.articles"`
		} `yaml:"topics"`
		RequiredAcks int `yaml:"required_acks" default:"1"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"quantpull-intake"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"250ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"quantpull.articles.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"quantpull"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Queue struct {
		Enabled      bool          `yaml:"enabled"`
		Prefix       string        `yaml:"prefix" default:"quantpull:collect"`
		Workers      int           `yaml:"workers" default:"2"`
		MaxRetries   int           `yaml:"max_retries" default:"3"`
		RetryBackoff time.Duration `yaml:"retry_backoff" default:"30s"`
		PollInterval time.Duration `yaml:"poll_interval" default:"1s"`
	} `yaml:"queue"`
	Providers struct {
		AlphaVantage struct {
			BaseURL       string        `yaml:"base_url" default:"https://www.alphavantage.co/query"`
			APIKey        string        `yaml:"api_key"`
			RatePerMinute int           `yaml:"rate_per_minute" default:"5"`
			Timeout       time.Duration `yaml:"timeout" default:"30s"`
		} `yaml:"alphavantage"`
		FRED struct {
			BaseURL string        `yaml:"base_url" default:"https://api.stlouisfed.org/fred"`
			APIKey  string        `yaml:"api_key"`
			Timeout time.Duration `yaml:"timeout" default:"30s"`
		} `yaml:"fred"`
		NewsAPI struct {
			BaseURL      string        `yaml:"base_url" default:"https://newsapi.org/v2"`
			APIKey       string        `yaml:"api_key"`
			PageSize     int           `yaml:"page_size" default:"100"`
			LookbackDays int           `yaml:"lookback_days" default:"30"`
			Timeout      time.Duration `yaml:"timeout" default:"30s"`
			// Source slugs the everything query is restricted to.
			Sources []string `yaml:"sources" default:"[\"bloomberg\",\"reuters\",\"cnbc\",\"marketwatch\",\"yahoo-finance\",\"financial-times\",\"the-wall-street-journal\",\"business-insider\",\"fortune\",\"forbes\"]"`
		} `yaml:"newsapi"`
		Newswire struct {
			Enabled        bool          `yaml:"enabled"`
			WebSocketURL   string        `yaml:"websocket_url"`
			APIKey         string        `yaml:"api_key"`
			ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
			PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		} `yaml:"newswire"`
	} `yaml:"providers"`
	Collection struct {
		Symbols   []string `yaml:"symbols" default:"[\"NVDA\",\"SOXL\",\"XOM\"]"`
		Intervals []string `yaml:"intervals" default:"[\"daily\",\"weekly\",\"monthly\"]"`
		// FRED series id -> display name used for output columns.
		EconSeries map[string]string `yaml:"econ_series" default:"{\"GDP\":\"GDP\",\"CPIAUCSL\":\"CPI\",\"UNRATE\":\"Unemployment\",\"FEDFUNDS\":\"FedRate\",\"PAYEMS\":\"Employment\",\"INDPRO\":\"IndustrialProduction\"}"`
		Schedule   time.Duration     `yaml:"schedule"` // zero disables the periodic scheduler
	} `yaml:"collection"`
	Features struct {
		OutlierThreshold float64 `yaml:"outlier_threshold" default:"3"`
		MAWindows        []int   `yaml:"ma_windows" default:"[5,20,50]"`
	} `yaml:"features"`
	Sentiment struct {
		ArticleNorm float64       `yaml:"article_norm" default:"10"`
		StdPenalty  float64       `yaml:"std_penalty" default:"0.5"`
		Blockwords  []string      `yaml:"blockwords" default:"[\"obituary\",\"weather\",\"sports\",\"entertainment\",\"celebrity\"]"`
		FlushEvery  time.Duration `yaml:"flush_every" default:"1m"` // streaming intake flush period
	} `yaml:"sentiment"`
	API struct {
		CacheTTL      time.Duration `yaml:"cache_ttl" default:"30s"`
		RatePerMinute int           `yaml:"rate_per_minute" default:"120"`
		MaxQueryLimit int           `yaml:"max_query_limit" default:"5000"`
	} `yaml:"api"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.Providers.FRED.APIKey = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.Providers.NewsAPI.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Collection.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("STORAGE_BACKENDS"); v != "" {
		c.Storage.Backends = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Storage.Backends) == 0 {
		return fmt.Errorf("storage.backends cannot be empty")
	}
	for _, b := range c.Storage.Backends {
		switch b {
		case "clickhouse", "kafka", "csv":
		default:
			return fmt.Errorf("storage.backends must contain only 'clickhouse', 'kafka' or 'csv', got '%s'", b)
		}
	}
	if (contains(c.Storage.Backends, "kafka") || c.Kafka.Consumer.Enabled || c.Logger.Collector.Enabled) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when a kafka component is enabled")
	}
	if len(c.Collection.Symbols) == 0 {
		return fmt.Errorf("collection.symbols cannot be empty")
	}
	for _, iv := range c.Collection.Intervals {
		switch iv {
		case "daily", "weekly", "monthly":
		default:
			return fmt.Errorf("collection.intervals must contain only 'daily', 'weekly' or 'monthly', got '%s'", iv)
		}
	}
	if c.Features.OutlierThreshold <= 0 {
		return fmt.Errorf("features.outlier_threshold must be positive")
	}
	if len(c.Features.MAWindows) == 0 {
		return fmt.Errorf("features.ma_windows cannot be empty")
	}
	if c.Sentiment.ArticleNorm <= 0 {
		return fmt.Errorf("sentiment.article_norm must be positive")
	}
	if c.Sentiment.StdPenalty < 0 || c.Sentiment.StdPenalty > 1 {
		return fmt.Errorf("sentiment.std_penalty must be within [0,1]")
	}
	if c.Providers.Newswire.Enabled && c.Providers.Newswire.WebSocketURL == "" {
		return fmt.Errorf("providers.newswire.websocket_url is required when the newswire is enabled")
	}
	return nil
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
