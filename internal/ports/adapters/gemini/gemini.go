package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/forPelevin/podclip/internal/ports/adapters/endpoint"
	"github.com/forPelevin/podclip/internal/types"
)

const (
	Name         = "gemini"
	DefaultModel = "gemini-1.5-flash-latest"

	fallbackMIME = "audio/mpeg"
)

var Endpoint = endpoint.Spec{
	Name:         "GEMINI_BASE_URL",
	DefaultURL:   "https://generativelanguage.googleapis.com",
	DefaultHosts: []string{"generativelanguage.googleapis.com"},
}

type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

// New builds a generateContent client. A zero timeout leaves request
// lifetime to the transport and the caller's context.
func New(apiKey, model, baseURL string, timeout time.Duration) *Adapter {
	if model == "" {
		model = DefaultModel
	}
	return &Adapter{
		key:     apiKey,
		model:   model,
		baseURL: endpoint.NormalizeBaseURL(baseURL, Endpoint.DefaultURL),
		client:  &http.Client{Timeout: timeout},
	}
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (a *Adapter) Analyze(ctx context.Context, audioPath, instruction string) (types.Analysis, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("gemini: read audio: %w", err)
	}

	payload := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: instruction},
				{InlineData: &inlineData{
					MIMEType: audioMIME(audio),
					Data:     base64.StdEncoding.EncodeToString(audio),
				}},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("gemini: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpointURL(), bytes.NewReader(body))
	if err != nil {
		return types.Analysis{}, fmt.Errorf("gemini: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return types.Analysis{}, fmt.Errorf("gemini: %s", endpoint.RedactSecrets(err.Error(), a.key))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return types.Analysis{}, endpoint.NewStatusError(Name, resp, a.key)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.Analysis{}, fmt.Errorf("gemini: decode response: %w", err)
	}
	text, err := firstCandidateText(out)
	if err != nil {
		return types.Analysis{}, err
	}
	return types.Analysis{Backend: Name, Model: a.model, Text: text}, nil
}

func (a *Adapter) endpointURL() string {
	q := url.Values{}
	q.Set("key", a.key)
	return a.baseURL + "/v1beta/models/" + url.PathEscape(a.model) + ":generateContent?" + q.Encode()
}

func firstCandidateText(out generateResponse) (string, error) {
	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini: prompt blocked: %s", out.PromptFeedback.BlockReason)
		}
		return "", errors.New("gemini: empty candidates")
	}
	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("gemini: empty content (finish_reason=%q)", out.Candidates[0].FinishReason)
	}
	return b.String(), nil
}

func audioMIME(b []byte) string {
	mt := mimetype.Detect(b)
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") {
			return m.String()
		}
	}
	return fallbackMIME
}
