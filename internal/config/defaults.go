package config

import (
	"github.com/forPelevin/podclip/internal/ports/adapters/gemini"
	"github.com/forPelevin/podclip/internal/ports/adapters/openai"
)

const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"

	defaultBackend       = BackendGemini
	defaultGeminiModel   = gemini.DefaultModel
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultOpenAIModel   = openai.DefaultModel
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultMinRatio      = 0.1
	defaultMaxRatio      = 0.3
	defaultEdgeMargin    = 20
	defaultPacing        = 2
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: defaultBackend,
		Gemini: Backend{
			Model:   defaultGeminiModel,
			BaseURL: defaultGeminiBaseURL,
		},
		OpenAI: Backend{
			Model:   defaultOpenAIModel,
			BaseURL: defaultOpenAIBaseURL,
		},
		FFmpeg: FFmpeg{
			FFmpegPath:  "ffmpeg",
			FFprobePath: "ffprobe",
		},
		Selection: Selection{
			MinRatio:          defaultMinRatio,
			MaxRatio:          defaultMaxRatio,
			EdgeMarginSeconds: defaultEdgeMargin,
		},
		Output: Output{
			Dir:           ".",
			Manifest:      true,
			PacingSeconds: defaultPacing,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
