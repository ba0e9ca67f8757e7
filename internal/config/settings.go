package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceGoogle = "google"
	SourceHTTP   = "http"
)

// Surface selections.
const (
	SurfaceAuto     = "auto"
	SurfaceDesktop  = "desktop"
	SurfaceTerminal = "terminal"
)

// Environment overrides, usually set through .env.
const (
	EnvSource       = "DUEWATCH_SOURCE"
	EnvTasksURL     = "DUEWATCH_TASKS_URL"
	EnvKafkaBrokers = "DUEWATCH_KAFKA_BROKERS"
)

// Settings is the content of config.yaml.
type Settings struct {
	Source   SourceSettings   `yaml:"source"`
	Reminder ReminderSettings `yaml:"reminder"`
	Notify   NotifySettings   `yaml:"notify"`
	Worker   WorkerSettings   `yaml:"worker"`
	Push     PushSettings     `yaml:"push"`
}

// SourceSettings selects where tasks are read from.
type SourceSettings struct {
	// Kind is "google" (Google Tasks, needs login) or "http".
	Kind string `yaml:"kind"`

	// URL is the task list endpoint for the http kind.
	URL string `yaml:"url"`

	// Timeout bounds a single task list query.
	Timeout time.Duration `yaml:"timeout"`
}

// ReminderSettings controls the poll loop.
type ReminderSettings struct {
	Interval     time.Duration `yaml:"interval"`
	CheckOnStart bool          `yaml:"check_on_start"`
}

// NotifySettings controls how notifications reach the user.
type NotifySettings struct {
	// Surface is "auto" (desktop, then terminal), "desktop" or "terminal".
	Surface string `yaml:"surface"`
	AppName string `yaml:"app_name"`
	Icon    string `yaml:"icon"`
}

// WorkerSettings configures the asset cache worker.
type WorkerSettings struct {
	// Origin is the base URL assets are fetched from.
	Origin    string   `yaml:"origin"`
	CacheName string   `yaml:"cache_name"`
	Manifest  []string `yaml:"manifest"`

	// Listen is the gateway address. Empty disables the gateway in watch.
	Listen string `yaml:"listen"`
}

// PushSettings configures the broker push source.
type PushSettings struct {
	Kafka KafkaSettings `yaml:"kafka"`
}

// KafkaSettings configures the Kafka push consumer. No brokers disables it.
type KafkaSettings struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// DefaultSettings returns the settings used when config.yaml is absent.
func DefaultSettings() *Settings {
	return &Settings{
		Source: SourceSettings{
			Kind:    SourceGoogle,
			Timeout: 10 * time.Second,
		},
		Reminder: ReminderSettings{
			Interval:     time.Minute,
			CheckOnStart: true,
		},
		Notify: NotifySettings{
			Surface: SurfaceAuto,
			AppName: "Task Reminder",
			Icon:    "/static/icon.png",
		},
		Worker: WorkerSettings{
			Origin:    "http://localhost:5000",
			CacheName: "prioritymaster-v1",
			Manifest:  []string{"/", "/static/style.css", "/static/script.js"},
		},
		Push: PushSettings{
			Kafka: KafkaSettings{
				Topic:   "duewatch-push",
				GroupID: "duewatch",
			},
		},
	}
}

// LoadSettings reads settings from path, layering explicit values over the
// defaults. Returns DefaultSettings if the file does not exist.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}

	// Decoding into the defaults keeps every key the file leaves out.
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", SettingsFile, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	return s, nil
}

// Validate checks settings for values the loop cannot run with.
func (s *Settings) Validate() error {
	switch s.Source.Kind {
	case SourceGoogle:
	case SourceHTTP:
		if strings.TrimSpace(s.Source.URL) == "" {
			return errors.New("source.url is required for the http source")
		}
	default:
		return fmt.Errorf("unknown source.kind %q", s.Source.Kind)
	}

	switch s.Notify.Surface {
	case SurfaceAuto, SurfaceDesktop, SurfaceTerminal:
	default:
		return fmt.Errorf("unknown notify.surface %q", s.Notify.Surface)
	}

	if s.Reminder.Interval <= 0 {
		return errors.New("reminder.interval must be positive")
	}
	if s.Source.Timeout < 0 {
		return errors.New("source.timeout must not be negative")
	}
	if strings.TrimSpace(s.Worker.CacheName) == "" {
		return errors.New("worker.cache_name is required")
	}
	for _, p := range s.Worker.Manifest {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("worker.manifest entry %q must start with /", p)
		}
	}
	if len(s.Push.Kafka.Brokers) > 0 && s.Push.Kafka.Topic == "" {
		return errors.New("push.kafka.topic is required when brokers are set")
	}
	return nil
}

// ApplyEnv overlays environment overrides. getenv is usually os.Getenv.
func (s *Settings) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvTasksURL)); v != "" {
		s.Source.URL = v
		s.Source.Kind = SourceHTTP
	}
	if v := strings.TrimSpace(getenv(EnvSource)); v != "" {
		s.Source.Kind = v
	}
	if v := getenv(EnvKafkaBrokers); v != "" {
		s.Push.Kafka.Brokers = SplitCSV(v)
	}
}

// SplitCSV splits a comma separated list, dropping empty items.
func SplitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
