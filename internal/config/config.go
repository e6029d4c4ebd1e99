package config

import (
	"fmt"
	"os"
	"time"

	"github.com/a8m/envsubst"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

type Config struct {
	TargetURL string             `yaml:"target_url" validate:"required,url"`
	Hostname  string             `yaml:"hostname"`
	Dirs      Dirs               `yaml:"dirs"`
	Browser   Browser            `yaml:"browser"`
	Timeouts  Timeouts           `yaml:"timeouts"`
	Groq      Groq               `yaml:"groq" validate:"required"`
	OCR       OCR                `yaml:"ocr"`
	Upload    *Upload            `yaml:"upload"`
	Webhook   *Webhook           `yaml:"webhook"`
	Schedule  *Schedule          `yaml:"schedule"`
	Services  map[string]Service `yaml:"services"`
	Notify    []NotifyTarget     `yaml:"notify"`
}

type Dirs struct {
	Screenshots string `yaml:"screenshots"`
	Videos      string `yaml:"videos"`
	Logs        string `yaml:"logs"`
}

type Browser struct {
	Headless    bool `yaml:"headless"`
	RecordVideo bool `yaml:"record_video"`
}

// Timeouts are duration strings parsed at the point of use; empty means the
// component default applies.
type Timeouts struct {
	Navigation        string `yaml:"navigation"`
	LoadState         string `yaml:"load_state"`
	Selector          string `yaml:"selector"`
	IndicatorFind     string `yaml:"indicator_find"`
	PollInterval      string `yaml:"poll_interval"`
	MaxConversionWait string `yaml:"max_conversion_wait"`
	FallbackWait      string `yaml:"fallback_wait"`
	CloseGrace        string `yaml:"close_grace"`
}

type Groq struct {
	APIKey   string `yaml:"api_key" validate:"required"`
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
	Timeout  string `yaml:"timeout"`
}

type OCR struct {
	Binary  string `yaml:"binary"`
	Timeout string `yaml:"timeout"`
}

type Upload struct {
	Provider string         `yaml:"provider" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

type Webhook struct {
	URL        string            `yaml:"url" validate:"required,url"`
	AuthType   string            `yaml:"auth_type" validate:"omitempty,oneof=none bearer api-key"`
	AuthToken  string            `yaml:"auth_token"`
	Headers    map[string]string `yaml:"headers"`
	Retries    int               `yaml:"retries"`
	RetryDelay string            `yaml:"retry_delay"`
	Timeout    string            `yaml:"timeout"`
}

type Schedule struct {
	Cron       string `yaml:"cron" validate:"required"`
	YoutubeURL string `yaml:"youtube_url" validate:"required,url"`
	TestName   string `yaml:"test_name"`
}

type Service struct {
	URL    string            `yaml:"url"`
	Params map[string]string `yaml:"params"`
}

// NotifyTarget handles a plain service name string or an object with overrides.
type NotifyTarget struct {
	Service  string            `yaml:"service"`
	Template string            `yaml:"template"`
	Params   map[string]string `yaml:"params"`
}

func (n *NotifyTarget) UnmarshalYAML(unmarshal func(any) error) error {
	var str string
	if err := unmarshal(&str); err == nil {
		n.Service = str
		return nil
	}

	type notifyAlias NotifyTarget
	var obj notifyAlias
	if err := unmarshal(&obj); err != nil {
		return fmt.Errorf("notify: must be a service name string or an object with service/template/params")
	}
	*n = NotifyTarget(obj)
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	data, err = envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Duration parses a config duration string, falling back to def when the
// field is empty or malformed.
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
