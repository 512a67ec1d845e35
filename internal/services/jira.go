package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ASalazar036/ProyectoFepi/internal/config"
	"github.com/ASalazar036/ProyectoFepi/internal/domain"
)

// JiraService is a minimal Jira Cloud REST v3 client: issue creation
// and a credential probe. Everything beyond that request/response
// contract belongs to Jira.
type JiraService struct {
	baseURL    string
	email      string
	apiToken   string
	httpClient *http.Client
}

func NewJiraService(cfg config.Config) *JiraService {
	svc := &JiraService{
		email:    cfg.JiraEmail,
		apiToken: cfg.JiraAPIToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	if cfg.JiraDomain != "" {
		svc.baseURL = fmt.Sprintf("https://%s", cfg.JiraDomain)
	}
	return svc
}

func (s *JiraService) Configured() bool {
	return s.baseURL != "" && s.email != "" && s.apiToken != ""
}

// CreateIssue maps a task to Jira's issue-creation schema and submits
// it. The description travels as a single-paragraph ADF document.
func (s *JiraService) CreateIssue(ctx context.Context, projectKey string, task domain.Task) error {
	issueType := task.Type
	if issueType == "" {
		issueType = domain.TypeTask
	}
	priority := task.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}

	payload := map[string]any{
		"fields": map[string]any{
			"project": map[string]string{"key": projectKey},
			"summary": task.Summary,
			"description": map[string]any{
				"type":    "doc",
				"version": 1,
				"content": []map[string]any{
					{
						"type": "paragraph",
						"content": []map[string]any{
							{"type": "text", "text": task.Description},
						},
					},
				},
			},
			"issuetype": map[string]string{"name": issueType},
			"priority":  map[string]string{"name": priority},
		},
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return fmt.Errorf("encode issue payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/rest/api/3/issue", buf)
	if err != nil {
		return fmt.Errorf("create issue request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("jira request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("jira api error: status %d body %s", resp.StatusCode, string(body))
	}

	return nil
}

// Myself probes the configured credentials and returns the account's
// display name and email.
func (s *JiraService) Myself(ctx context.Context) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/rest/api/3/myself", nil)
	if err != nil {
		return "", "", fmt.Errorf("create myself request: %w", err)
	}
	s.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("jira request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("jira api error: status %d body %s", resp.StatusCode, string(body))
	}

	var payload struct {
		DisplayName  string `json:"displayName"`
		EmailAddress string `json:"emailAddress"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", fmt.Errorf("decode myself response: %w", err)
	}

	return payload.DisplayName, payload.EmailAddress, nil
}

func (s *JiraService) authorize(req *http.Request) {
	credentials := base64.StdEncoding.EncodeToString([]byte(s.email + ":" + s.apiToken))
	req.Header.Set("Authorization", "Basic "+credentials)
}
