package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned when none of the searched paths holds a config file.
var ErrNoConfig = errors.New("no config file found")

type Service struct {
	URL string `yaml:"url" toml:"url"`
	// Health is an optional gRPC health endpoint probed before the pipeline starts.
	Health string `yaml:"health" toml:"health"`
}
type Services struct {
	Landmarks     Service `yaml:"landmarks" toml:"landmarks"`
	Gesture       Service `yaml:"gesture" toml:"gesture"`
	Faces         Service `yaml:"faces" toml:"faces"`
	Emotion       Service `yaml:"emotion" toml:"emotion"`
	Sentiment     Service `yaml:"sentiment" toml:"sentiment"`
	Speech        Service `yaml:"speech" toml:"speech"`
	Visualization Service `yaml:"visualization" toml:"visualization"`
}

type Capture struct {
	// Source is "camera:<index>" or "dir:<path>".
	Source string  `yaml:"source" toml:"source"`
	Width  int     `yaml:"width" toml:"width"`
	Height int     `yaml:"height" toml:"height"`
	FPS    float64 `yaml:"fps" toml:"fps"`
	Mirror bool    `yaml:"mirror" toml:"mirror"`
}

type Composer struct {
	HoldSeconds      float64  `yaml:"hold_seconds" toml:"hold_seconds"`
	SpaceHoldSeconds float64  `yaml:"space_hold_seconds" toml:"space_hold_seconds"`
	SilenceSeconds   float64  `yaml:"silence_seconds" toml:"silence_seconds"`
	InstantLabels    []string `yaml:"instant_labels" toml:"instant_labels"`
}

type Gesture struct {
	LabelsFile string  `yaml:"labels_file" toml:"labels_file"`
	MinScore   float64 `yaml:"min_score" toml:"min_score"`
}

type Sentiment struct {
	// Provider is "http" (sentiment service) or "openai".
	Provider  string `yaml:"provider" toml:"provider"`
	Model     string `yaml:"model" toml:"model"`
	APIKeyEnv string `yaml:"api_key_env" toml:"api_key_env"`
	BaseURL   string `yaml:"base_url" toml:"base_url"`
}

type Speech struct {
	Enabled bool    `yaml:"enabled" toml:"enabled"`
	Rate    int     `yaml:"rate" toml:"rate"`
	Volume  float64 `yaml:"volume" toml:"volume"`
}

type Chat struct {
	// Transport is "", "http" or "redis".
	Transport string `yaml:"transport" toml:"transport"`
	URL       string `yaml:"url" toml:"url"`
	Sender    string `yaml:"sender" toml:"sender"`
	Receiver  string `yaml:"receiver" toml:"receiver"`
	// TokenSecretEnv names the env var holding the HMAC secret for the bearer token.
	TokenSecretEnv string `yaml:"token_secret_env" toml:"token_secret_env"`
	RedisAddr      string `yaml:"redis_addr" toml:"redis_addr"`
	RedisChannel   string `yaml:"redis_channel" toml:"redis_channel"`
}

type InteractionLog struct {
	// Backend is "csv", "sqlite" or "postgres".
	Backend string `yaml:"backend" toml:"backend"`
	Path    string `yaml:"path" toml:"path"`
	DSN     string `yaml:"dsn" toml:"dsn"`
	// FrameRate bounds per-frame engagement rows per second; 0 disables them.
	FrameRate float64 `yaml:"frame_rate" toml:"frame_rate"`
}

type Artifacts struct {
	// Store is "fs", "s3" or "gcs".
	Store    string `yaml:"store" toml:"store"`
	Dir      string `yaml:"dir" toml:"dir"`
	Bucket   string `yaml:"bucket" toml:"bucket"`
	Region   string `yaml:"region" toml:"region"`
	Endpoint string `yaml:"endpoint" toml:"endpoint"`
	Prefix   string `yaml:"prefix" toml:"prefix"`
	Archive  bool   `yaml:"archive" toml:"archive"`
}

type Timeouts struct {
	CapabilitySeconds int `yaml:"capability_seconds" toml:"capability_seconds"`
	SinkSeconds       int `yaml:"sink_seconds" toml:"sink_seconds"`
	ShutdownSeconds   int `yaml:"shutdown_seconds" toml:"shutdown_seconds"`
}

type Telemetry struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Endpoint string `yaml:"endpoint" toml:"endpoint"`
	Insecure bool   `yaml:"insecure" toml:"insecure"`
}

type Root struct {
	Pipeline struct {
		Name      string `yaml:"name" toml:"name"`
		Version   string `yaml:"version" toml:"version"`
		LogLvl    string `yaml:"log_level" toml:"log_level"`
		LogFormat string `yaml:"log_format" toml:"log_format"`
		Room      string `yaml:"room" toml:"room"`
	} `yaml:"pipeline" toml:"pipeline"`
	Capture        Capture        `yaml:"capture" toml:"capture"`
	Services       Services       `yaml:"services" toml:"services"`
	Composer       Composer       `yaml:"composer" toml:"composer"`
	Gesture        Gesture        `yaml:"gesture" toml:"gesture"`
	Sentiment      Sentiment      `yaml:"sentiment" toml:"sentiment"`
	Speech         Speech         `yaml:"speech" toml:"speech"`
	Chat           Chat           `yaml:"chat" toml:"chat"`
	InteractionLog InteractionLog `yaml:"interaction_log" toml:"interaction_log"`
	Artifacts      Artifacts      `yaml:"artifacts" toml:"artifacts"`
	Timeouts       Timeouts       `yaml:"timeouts" toml:"timeouts"`
	Telemetry      Telemetry      `yaml:"telemetry" toml:"telemetry"`
	Paths          struct {
		Data     string `yaml:"data" toml:"data"`
		Models   string `yaml:"models" toml:"models"`
		Outputs  string `yaml:"outputs" toml:"outputs"`
		Reports  string `yaml:"reports" toml:"reports"`
		ChatLogs string `yaml:"chatlogs" toml:"chatlogs"`
	} `yaml:"paths" toml:"paths"`
}

// Default returns a Root populated with the values the pipeline runs with when a
// config file leaves a field unset.
func Default() *Root {
	var r Root
	r.Pipeline.Name = "signbridge"
	r.Pipeline.Version = "0.1.0"
	r.Pipeline.LogLvl = "info"
	r.Pipeline.LogFormat = "text"
	r.Pipeline.Room = "default_meeting"
	r.Capture = Capture{Source: "camera:0", Width: 960, Height: 540, FPS: 0, Mirror: true}
	r.Composer = Composer{HoldSeconds: 1.5, SpaceHoldSeconds: 1.4, SilenceSeconds: 4, InstantLabels: []string{"J", "Z"}}
	r.Gesture = Gesture{LabelsFile: filepath.Join("model", "keypoint_classifier", "keypoint_classifier_label.csv")}
	r.Sentiment = Sentiment{Provider: "http", Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY"}
	r.Speech = Speech{Enabled: true, Rate: 150, Volume: 1}
	r.Chat = Chat{Sender: "ASL_Bot", Receiver: "teacher", TokenSecretEnv: "SIGNBRIDGE_CHAT_SECRET", RedisChannel: "meeting_chat"}
	r.InteractionLog = InteractionLog{Backend: "csv", Path: "interaction_log.csv"}
	r.Artifacts = Artifacts{Store: "fs", Dir: filepath.Join("reports", "published"), Archive: true}
	r.Timeouts = Timeouts{CapabilitySeconds: 2, SinkSeconds: 10, ShutdownSeconds: 30}
	r.Paths.Data = "data"
	r.Paths.Models = "model"
	r.Paths.Outputs = filepath.Join("reports", "result")
	r.Paths.Reports = "reports"
	r.Paths.ChatLogs = "chatlogs"
	return &r
}

// Load decodes the first config file found. An explicit path wins over the
// CONFIG_ENV search; the decoder is chosen by file extension.
func Load(explicit string) (*Root, error) {
	var guess []string
	if explicit != "" {
		guess = []string{explicit}
	} else {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		guess = []string{
			filepath.Join("config", env, "config.yaml"),
			filepath.Join("config", env, "config.toml"),
			filepath.Join("shared", "config.yaml"),
		}
	}

	cfg := Default()
	for _, p := range guess {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := decodeFile(p, cfg); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}
	if explicit != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoConfig, explicit)
	}
	return cfg, ErrNoConfig
}

func decodeFile(path string, cfg *Root) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects configurations the pipeline cannot start with.
func (r *Root) Validate() error {
	if r.Pipeline.Room == "" {
		return errors.New("pipeline.room must not be empty")
	}
	if r.Composer.HoldSeconds <= 0 || r.Composer.SpaceHoldSeconds <= 0 || r.Composer.SilenceSeconds <= 0 {
		return errors.New("composer thresholds must be > 0")
	}
	switch r.InteractionLog.Backend {
	case "csv", "sqlite":
		if r.InteractionLog.Path == "" {
			return fmt.Errorf("interaction_log.path is required for backend %q", r.InteractionLog.Backend)
		}
	case "postgres":
		if r.InteractionLog.DSN == "" {
			return errors.New("interaction_log.dsn is required for backend postgres")
		}
	default:
		return fmt.Errorf("unsupported interaction_log.backend %q", r.InteractionLog.Backend)
	}
	if r.InteractionLog.FrameRate < 0 {
		return errors.New("interaction_log.frame_rate must be >= 0")
	}
	switch r.Sentiment.Provider {
	case "http", "openai":
	default:
		return fmt.Errorf("unsupported sentiment.provider %q", r.Sentiment.Provider)
	}
	switch r.Chat.Transport {
	case "", "http", "redis":
	default:
		return fmt.Errorf("unsupported chat.transport %q", r.Chat.Transport)
	}
	if r.Timeouts.CapabilitySeconds <= 0 || r.Timeouts.SinkSeconds <= 0 || r.Timeouts.ShutdownSeconds <= 0 {
		return errors.New("timeouts must be > 0")
	}
	return nil
}

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }

// FloatSeconds converts fractional seconds from the config into a Duration.
func FloatSeconds(f float64) time.Duration { return time.Duration(f * float64(time.Second)) }

// LatestSentencePath is the sidecar polled by the live status endpoint.
func (r *Root) LatestSentencePath(room string) string {
	return filepath.Join(r.Paths.Reports, "latest_sentence_"+room+".txt")
}

// ChatLogPath is the per-room chat sidecar.
func (r *Root) ChatLogPath(room string) string {
	return filepath.Join(r.Paths.ChatLogs, room+".txt")
}

// EmotionSummaryPath is the per-room raw emotion detection table.
func (r *Root) EmotionSummaryPath(room string) string {
	return filepath.Join(r.Paths.Data, room+".csv")
}
