package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ASalazar036/ProyectoFepi/internal/config"
)

const (
	geminiBaseURL  = "https://generativelanguage.googleapis.com/v1beta"
	requestTimeout = 10 * time.Minute
)

// transcriptInstruction pins the model to a literal transcript. Without
// it Gemini wraps the text in greetings and "here is the transcript"
// framing.
const transcriptInstruction = "Genera una transcripción literal y exacta de lo que se dice en este audio. " +
	"No añadas títulos, ni formatos, ni introducciones. Solo el texto hablado puro."

// GeminiProvider talks to the Gemini generateContent REST API.
type GeminiProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiProvider(cfg config.Config) *GeminiProvider {
	return &GeminiProvider{
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		baseURL: geminiBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

func (p *GeminiProvider) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	return p.generateContent(ctx, []geminiPart{{Text: joinInstruction(req)}})
}

func (p *GeminiProvider) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	parts := []geminiPart{
		{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(audio)}},
		{Text: transcriptInstruction},
	}

	transcript, err := p.generateContent(ctx, parts)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	return transcript, nil
}

func (p *GeminiProvider) AnalyzeAudio(ctx context.Context, audio []byte, mimeType, instructions string) (string, error) {
	parts := []geminiPart{
		{Text: instructions},
		{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(audio)}},
	}
	return p.generateContent(ctx, parts)
}

func (p *GeminiProvider) generateContent(ctx context.Context, parts []geminiPart) (string, error) {
	if err := p.ensureAPIKey(); err != nil {
		return "", err
	}

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode gemini payload: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", p.decodeAPIError(resp)
	}

	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("%w: decode gemini response: %w", ErrProvider, err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", ErrProvider)
	}

	text := &strings.Builder{}
	for _, part := range response.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return strings.TrimSpace(text.String()), nil
}

func (p *GeminiProvider) decodeAPIError(resp *http.Response) error {
	var apiErr struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("%w: status %d %s: %s", ErrProvider, resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
	}

	return fmt.Errorf("%w: status %d body %s", ErrProvider, resp.StatusCode, string(body))
}

func (p *GeminiProvider) ensureAPIKey() error {
	if strings.TrimSpace(p.apiKey) == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY is not configured", ErrProviderUnavailable)
	}
	return nil
}
