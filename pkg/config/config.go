package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Capture struct {
		BindAddress string        `yaml:"bind_address"`
		BufferSize  int           `yaml:"buffer_size"`
		ReadTimeout time.Duration `yaml:"read_timeout"`
	} `yaml:"capture"`

	Analysis struct {
		PacketHistory       int           `yaml:"packet_history"`
		MetricsInterval     time.Duration `yaml:"metrics_interval"`
		RTPPortMin          uint16        `yaml:"rtp_port_min"`
		RTPPortMax          uint16        `yaml:"rtp_port_max"`
		RTSPPort            uint16        `yaml:"rtsp_port"`
		StreamPort          uint16        `yaml:"stream_port"`
		VideoClockRate      uint32        `yaml:"video_clock_rate"`
		AudioClockRate      uint32        `yaml:"audio_clock_rate"`
		CapturePathOffsetMs float64       `yaml:"capture_path_offset_ms"`
	} `yaml:"analysis"`

	Thresholds struct {
		JitterMs      float64 `yaml:"jitter_ms"`
		DelayMs       float64 `yaml:"delay_ms"`
		LatencyMs     float64 `yaml:"latency_ms"`
		PacketLossPct float64 `yaml:"packet_loss_pct"`
	} `yaml:"thresholds"`

	Web struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		PingInterval    time.Duration `yaml:"ping_interval"`
		PongTimeout     time.Duration `yaml:"pong_timeout"`
		PushPerSecond   float64       `yaml:"push_per_second"`
		PushBurst       int           `yaml:"push_burst"`
		JWTSecret       string        `yaml:"jwt_secret"`
	} `yaml:"web"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Capture.BindAddress == "" {
		return fmt.Errorf("capture.bind_address must not be empty")
	}
	if c.Capture.BufferSize <= 0 {
		return fmt.Errorf("capture.buffer_size must be > 0")
	}
	if c.Capture.ReadTimeout <= 0 {
		return fmt.Errorf("capture.read_timeout must be > 0")
	}

	if c.Analysis.PacketHistory <= 1 {
		return fmt.Errorf("analysis.packet_history must be > 1")
	}
	if c.Analysis.MetricsInterval <= 0 {
		return fmt.Errorf("analysis.metrics_interval must be > 0")
	}
	if c.Analysis.RTPPortMin == 0 || c.Analysis.RTPPortMax == 0 {
		return fmt.Errorf("analysis.rtp_port_min and rtp_port_max must be set")
	}
	if c.Analysis.RTPPortMin > c.Analysis.RTPPortMax {
		return fmt.Errorf("analysis.rtp_port_min must be <= rtp_port_max")
	}
	if c.Analysis.VideoClockRate == 0 || c.Analysis.AudioClockRate == 0 {
		return fmt.Errorf("analysis clock rates must be > 0")
	}
	if c.Analysis.CapturePathOffsetMs < 0 {
		return fmt.Errorf("analysis.capture_path_offset_ms must be >= 0")
	}

	if c.Thresholds.JitterMs <= 0 || c.Thresholds.DelayMs <= 0 ||
		c.Thresholds.LatencyMs <= 0 || c.Thresholds.PacketLossPct <= 0 {
		return fmt.Errorf("thresholds must all be > 0")
	}

	if c.Web.Address == "" {
		return fmt.Errorf("web.address must not be empty")
	}
	if c.Web.ReadTimeout <= 0 {
		return fmt.Errorf("web.read_timeout must be > 0")
	}
	if c.Web.WriteTimeout <= 0 {
		return fmt.Errorf("web.write_timeout must be > 0")
	}
	if c.Web.ShutdownTimeout <= 0 {
		return fmt.Errorf("web.shutdown_timeout must be > 0")
	}
	if c.Web.PingInterval <= 0 {
		return fmt.Errorf("web.ping_interval must be > 0")
	}
	if c.Web.PongTimeout <= 0 {
		return fmt.Errorf("web.pong_timeout must be > 0")
	}
	if c.Web.PushPerSecond <= 0 {
		return fmt.Errorf("web.push_per_second must be > 0")
	}
	if c.Web.PushBurst <= 0 {
		return fmt.Errorf("web.push_burst must be > 0")
	}
	if c.Web.JWTSecret == "" {
		return fmt.Errorf("web.jwt_secret must not be empty")
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
		if c.Redis.Channel == "" {
			return fmt.Errorf("redis.channel must not be empty when redis.enabled=true")
		}
	}

	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	return nil
}

// Load reads configuration from a YAML file, applies defaults and env
// overrides. A missing file falls back to defaults.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults. Threshold and
// history defaults match the values the monitor shipped with on the
// embedded board.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Capture.BindAddress = "0.0.0.0"
	cfg.Capture.BufferSize = 4096
	cfg.Capture.ReadTimeout = 200 * time.Millisecond

	cfg.Analysis.PacketHistory = 100
	cfg.Analysis.MetricsInterval = 1000 * time.Millisecond
	cfg.Analysis.RTPPortMin = 16384
	cfg.Analysis.RTPPortMax = 32767
	cfg.Analysis.RTSPPort = 554
	cfg.Analysis.StreamPort = 8000
	cfg.Analysis.VideoClockRate = 90000
	cfg.Analysis.AudioClockRate = 8000
	cfg.Analysis.CapturePathOffsetMs = 0

	cfg.Thresholds.JitterMs = 50.0
	cfg.Thresholds.DelayMs = 200.0
	cfg.Thresholds.LatencyMs = 100.0
	cfg.Thresholds.PacketLossPct = 1.0

	cfg.Web.Address = ":8080"
	cfg.Web.ReadTimeout = 30 * time.Second
	cfg.Web.WriteTimeout = 30 * time.Second
	cfg.Web.ShutdownTimeout = 30 * time.Second
	cfg.Web.PingInterval = 30 * time.Second
	cfg.Web.PongTimeout = 60 * time.Second
	cfg.Web.PushPerSecond = 4
	cfg.Web.PushBurst = 8
	cfg.Web.JWTSecret = "change-me-in-production"

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10
	cfg.Redis.Channel = "cctv:metrics"

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("CCTV_CAPTURE_BIND"); addr != "" {
		c.Capture.BindAddress = addr
	}
	if addr := os.Getenv("CCTV_WEB_ADDRESS"); addr != "" {
		c.Web.Address = addr
	}
	if level := os.Getenv("CCTV_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("CCTV_JWT_SECRET"); secret != "" {
		c.Web.JWTSecret = secret
	}
	if addr := os.Getenv("CCTV_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CCTV_PACKET_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			c.Analysis.PacketHistory = n
		}
	}
}
