package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ASalazar036/ProyectoFepi/internal/config"
)

// LocalProvider chains a speech-to-text subprocess with a local
// completion endpoint (Ollama-style /api/generate).
type LocalProvider struct {
	endpoint        string
	model           string
	transcriberPath string
	tmpDir          string
	timeout         time.Duration
	httpClient      *http.Client
}

var mimeExtensions = map[string]string{
	"audio/webm": ".webm",
	"audio/mp4":  ".mp4",
	"audio/ogg":  ".ogg",
	"audio/wav":  ".wav",
}

func NewLocalProvider(cfg config.Config) *LocalProvider {
	return &LocalProvider{
		endpoint:        cfg.LocalEndpoint,
		model:           cfg.LocalModel,
		transcriberPath: cfg.TranscriberPath,
		tmpDir:          filepath.Join(cfg.DataDir, "tmp"),
		timeout:         cfg.TranscribeTimeout,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (p *LocalProvider) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	payload := map[string]any{
		"model":  p.model,
		"prompt": joinInstruction(req),
		"stream": false,
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode completion payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, buf)
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := readBody(resp)
		return "", fmt.Errorf("%w: local endpoint status %d body %s", ErrProvider, resp.StatusCode, body)
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("%w: decode completion response: %w", ErrProvider, err)
	}

	return response.Response, nil
}

// Transcribe writes the audio to a temp file and hands it to the
// speech-to-text subprocess. The subprocess must print exactly one JSON
// object on stdout: {success:true, transcript} or {success:false, error}.
func (p *LocalProvider) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if strings.TrimSpace(p.transcriberPath) == "" {
		return "", fmt.Errorf("%w: TRANSCRIBER_PATH is not configured", ErrProviderUnavailable)
	}

	tempPath, err := p.writeTempAudio(audio, mimeType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscriptionFailed, err)
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil {
			log.Printf("failed to remove temp audio %s: %v", tempPath, err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.transcriberPath, tempPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: transcriber timed out after %s", ErrTranscriptionFailed, p.timeout)
		}
		return "", fmt.Errorf("%w: %w: %s", ErrTranscriptionFailed, err, strings.TrimSpace(stderr.String()))
	}

	var result struct {
		Success    bool   `json:"success"`
		Transcript string `json:"transcript"`
		Error      string `json:"error"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return "", fmt.Errorf("%w: invalid transcriber output", ErrTranscriptionFailed)
	}

	if !result.Success {
		return "", fmt.Errorf("%w: %s", ErrTranscriptionFailed, result.Error)
	}

	return result.Transcript, nil
}

// AnalyzeAudio has no multimodal shortcut locally: transcribe first,
// then analyze the transcript. The second call only runs if the first
// succeeded.
func (p *LocalProvider) AnalyzeAudio(ctx context.Context, audio []byte, mimeType, instructions string) (string, error) {
	transcript, err := p.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return "", err
	}

	return p.Generate(ctx, GenerationRequest{
		Prompt:            transcript,
		SystemInstruction: instructions,
	})
}

func (p *LocalProvider) writeTempAudio(audio []byte, mimeType string) (string, error) {
	if err := os.MkdirAll(p.tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	ext, ok := mimeExtensions[strings.ToLower(mimeType)]
	if !ok {
		ext = ".webm"
	}

	path := filepath.Join(p.tmpDir, fmt.Sprintf("rec-%d%s", time.Now().UnixNano(), ext))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("write temp audio: %w", err)
	}
	return path, nil
}

func readBody(resp *http.Response) (string, error) {
	buf := &bytes.Buffer{}
	_, err := buf.ReadFrom(resp.Body)
	return strings.TrimSpace(buf.String()), err
}
