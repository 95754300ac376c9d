package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forPelevin/podclip/internal/ports/adapters/endpoint"
	"github.com/forPelevin/podclip/internal/types"
)

const (
	Name         = "openai"
	DefaultModel = "gpt-4o-audio-preview"
)

var Endpoint = endpoint.Spec{
	Name:         "OPENAI_BASE_URL",
	DefaultURL:   "https://api.openai.com",
	DefaultHosts: []string{"api.openai.com", "openrouter.ai", "api.openrouter.ai"},
}

// Adapter talks to any OpenAI-compatible chat completions endpoint that
// accepts input_audio content parts.
type Adapter struct {
	key     string
	model   string
	baseURL string
	path    string
	client  *http.Client
}

func New(apiKey, model, baseURL string, timeout time.Duration) *Adapter {
	if model == "" {
		model = DefaultModel
	}
	baseURL = endpoint.NormalizeBaseURL(baseURL, Endpoint.DefaultURL)
	path := "/v1/chat/completions"
	if strings.Contains(baseURL, "openrouter.ai") {
		path = "/api/v1/chat/completions"
	}
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, path: path, client: &http.Client{Timeout: timeout}}
}

type inputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

type contentPart struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	InputAudio *inputAudio `json:"input_audio,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Stream     bool          `json:"stream"`
	Modalities []string      `json:"modalities"`
	Messages   []chatMessage `json:"messages"`
}

func (a *Adapter) Analyze(ctx context.Context, audioPath, instruction string) (types.Analysis, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("openai: read audio: %w", err)
	}

	payload := chatRequest{
		Model:      a.model,
		Stream:     false,
		Modalities: []string{"text"},
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: instruction},
				{Type: "input_audio", InputAudio: &inputAudio{
					Data:   base64.StdEncoding.EncodeToString(audio),
					Format: audioFormat(audioPath),
				}},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+a.path, bytes.NewReader(body))
	if err != nil {
		return types.Analysis{}, fmt.Errorf("openai: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.Analysis{}, endpoint.NewStatusError(Name, resp, a.key)
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any    `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
			Text string `json:"text"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return types.Analysis{}, fmt.Errorf("openai: decode response: %w", err)
	}
	if raw.Error != nil {
		return types.Analysis{}, fmt.Errorf("openai: api error: %s", endpoint.RedactSecrets(raw.Error.Message, a.key))
	}
	if len(raw.Choices) == 0 {
		return types.Analysis{}, errors.New("openai: empty choices")
	}

	choice := raw.Choices[0]
	if strings.TrimSpace(choice.Text) != "" {
		return types.Analysis{Backend: Name, Model: a.model, Text: choice.Text}, nil
	}
	text, err := messageContentToString(choice.Message.Content)
	if err != nil {
		if choice.Message.Refusal != "" {
			return types.Analysis{}, fmt.Errorf("openai: refused: %s", choice.Message.Refusal)
		}
		return types.Analysis{}, err
	}
	return types.Analysis{Backend: Name, Model: a.model, Text: text}, nil
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return "", errors.New("openai: empty content")
		}
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openai: empty content")
		}
		return s, nil
	case nil:
		return "", errors.New("openai: empty content")
	default:
		return "", fmt.Errorf("openai: unexpected content type %T", v)
	}
}

// input_audio only knows mp3 and wav.
func audioFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return "wav"
	}
	return "mp3"
}
