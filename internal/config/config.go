package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const DefaultFileName = "podclip.toml"

// Backend holds connection settings for one analysis service.
type Backend struct {
	APIKey         string   `toml:"api_key"`
	Model          string   `toml:"model"`
	BaseURL        string   `toml:"base_url"`
	AllowedHosts   []string `toml:"allowed_hosts"`
	TimeoutSeconds int      `toml:"timeout_seconds" validate:"gte=0"`
}

type FFmpeg struct {
	FFmpegPath  string `toml:"ffmpeg" validate:"required"`
	FFprobePath string `toml:"ffprobe" validate:"required"`
}

// Selection mirrors moments.Policy.
type Selection struct {
	MinRatio          float64 `toml:"min_ratio" validate:"gte=0,lte=1"`
	MaxRatio          float64 `toml:"max_ratio" validate:"gt=0,lte=1"`
	EdgeMarginSeconds float64 `toml:"edge_margin_seconds" validate:"gte=0"`
}

type Output struct {
	Dir           string  `toml:"dir" validate:"required"`
	Manifest      bool    `toml:"manifest"`
	PacingSeconds float64 `toml:"pacing_seconds" validate:"gte=0,lte=600"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format" validate:"oneof=console json"`
}

// Config is built once at startup and handed to the pipeline; nothing reads
// credentials from the environment after Load returns.
type Config struct {
	Backend   string    `toml:"backend" validate:"oneof=gemini openai"`
	Gemini    Backend   `toml:"gemini"`
	OpenAI    Backend   `toml:"openai"`
	FFmpeg    FFmpeg    `toml:"ffmpeg"`
	Selection Selection `toml:"selection"`
	Output    Output    `toml:"output"`
	Logging   Logging   `toml:"logging"`
}

// Load applies defaults, then the TOML file at path (or ./podclip.toml when
// path is empty and the file exists), then environment overrides.
// It returns the resolved file path and whether it existed.
func Load(path string, env func(string) string) (*Config, string, bool, error) {
	if env == nil {
		env = os.Getenv
	}
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}
	if path != "" && !exists {
		return nil, "", false, fmt.Errorf("config file %q does not exist", resolved)
	}
	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv(env)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = DefaultFileName
	}
	abs, err := filepath.Abs(expandHome(path))
	if err != nil {
		return "", false, fmt.Errorf("resolve config path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abs, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", abs)
	}
	return abs, true, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func (c *Config) applyEnv(env func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(env(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	set(&c.Backend, "PODCLIP_BACKEND")
	set(&c.Gemini.APIKey, "GEMINI_API_KEY")
	set(&c.Gemini.Model, "GEMINI_MODEL")
	set(&c.Gemini.BaseURL, "GEMINI_BASE_URL")
	set(&c.OpenAI.APIKey, "OPENAI_API_KEY", "CHATGPT_API_KEY")
	set(&c.OpenAI.Model, "OPENAI_MODEL")
	set(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	set(&c.Logging.Level, "PODCLIP_LOG_LEVEL")
	set(&c.Logging.Format, "PODCLIP_LOG_FORMAT")
}

func (c *Config) normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	for _, b := range []*Backend{&c.Gemini, &c.OpenAI} {
		b.APIKey = strings.TrimSpace(b.APIKey)
		b.Model = strings.TrimSpace(b.Model)
		b.BaseURL = strings.TrimSpace(b.BaseURL)
	}
	c.Output.Dir = strings.TrimSpace(c.Output.Dir)
	if c.Output.Dir != "" {
		c.Output.Dir = expandHome(c.Output.Dir)
	}
}

// ActiveBackend returns the settings of the selected backend.
func (c *Config) ActiveBackend() Backend {
	if c.Backend == BackendOpenAI {
		return c.OpenAI
	}
	return c.Gemini
}
