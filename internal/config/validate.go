package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/forPelevin/podclip/internal/logger"
	"github.com/forPelevin/podclip/internal/ports/adapters/gemini"
	"github.com/forPelevin/podclip/internal/ports/adapters/openai"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and cross-field rules. A missing API key is
// not an error here; the backend reports it as an auth failure.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}

	if c.Selection.MinRatio > c.Selection.MaxRatio {
		return fmt.Errorf("config: selection.min_ratio (%g) must be <= selection.max_ratio (%g)",
			c.Selection.MinRatio, c.Selection.MaxRatio)
	}
	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("config: logging.level %q is not one of trace, debug, info, warn, error", c.Logging.Level)
	}

	switch c.Backend {
	case BackendGemini:
		if err := gemini.Endpoint.ValidateBaseURL(c.Gemini.BaseURL, c.Gemini.AllowedHosts); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	case BackendOpenAI:
		if err := openai.Endpoint.ValidateBaseURL(c.OpenAI.BaseURL, c.OpenAI.AllowedHosts); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := tomlPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value()))
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

var tomlNames = map[string]string{
	"Backend":           "backend",
	"Gemini":            "gemini",
	"OpenAI":            "openai",
	"FFmpeg":            "ffmpeg",
	"Selection":         "selection",
	"Output":            "output",
	"Logging":           "logging",
	"TimeoutSeconds":    "timeout_seconds",
	"FFmpegPath":        "ffmpeg",
	"FFprobePath":       "ffprobe",
	"MinRatio":          "min_ratio",
	"MaxRatio":          "max_ratio",
	"EdgeMarginSeconds": "edge_margin_seconds",
	"Dir":               "dir",
	"PacingSeconds":     "pacing_seconds",
	"Level":             "level",
	"Format":            "format",
}

// tomlPath turns "Config.Selection.MaxRatio" into "selection.max_ratio".
func tomlPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if n, ok := tomlNames[p]; ok {
			parts[i] = n
		}
	}
	return strings.Join(parts, ".")
}
