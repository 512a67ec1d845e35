package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ASalazar036/ProyectoFepi/internal/config"
)

func TestJiraConfiguredNeedsFullTriple(t *testing.T) {
	cases := []config.Config{
		{},
		{JiraDomain: "example.atlassian.net"},
		{JiraDomain: "example.atlassian.net", JiraEmail: "pm@example.com"},
		{JiraEmail: "pm@example.com", JiraAPIToken: "token"},
	}
	for _, cfg := range cases {
		if NewJiraService(cfg).Configured() {
			t.Fatalf("expected unconfigured for %+v", cfg)
		}
	}

	full := NewJiraService(config.Config{
		JiraDomain:   "example.atlassian.net",
		JiraEmail:    "pm@example.com",
		JiraAPIToken: "token",
	})
	if !full.Configured() {
		t.Fatalf("expected configured with full triple")
	}
}

func TestJiraMyself(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/myself" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"displayName":"Ana Salazar","emailAddress":"ana@example.com"}`))
	}))
	defer server.Close()

	jira := NewJiraService(config.Config{
		JiraDomain:   "example.atlassian.net",
		JiraEmail:    "ana@example.com",
		JiraAPIToken: "token",
	})
	jira.baseURL = server.URL

	user, email, err := jira.Myself(context.Background())
	if err != nil {
		t.Fatalf("myself: %v", err)
	}
	if user != "Ana Salazar" || email != "ana@example.com" {
		t.Fatalf("unexpected identity %q %q", user, email)
	}
}

func TestJiraMyselfRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorMessages":["Unauthorized"]}`))
	}))
	defer server.Close()

	jira := NewJiraService(config.Config{
		JiraDomain:   "example.atlassian.net",
		JiraEmail:    "ana@example.com",
		JiraAPIToken: "bad",
	})
	jira.baseURL = server.URL

	if _, _, err := jira.Myself(context.Background()); err == nil {
		t.Fatalf("expected error for rejected credentials")
	}
}
