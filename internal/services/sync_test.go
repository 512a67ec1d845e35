package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ASalazar036/ProyectoFepi/internal/config"
	"github.com/ASalazar036/ProyectoFepi/internal/domain"
	"github.com/ASalazar036/ProyectoFepi/internal/storage"
)

func seededStore(t *testing.T, tasks []domain.Task) *storage.Store {
	t.Helper()

	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := store.Append(tasks); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func pendingTask(id, summary string) domain.Task {
	return domain.Task{
		ID:       id,
		Summary:  summary,
		Type:     domain.TypeTask,
		Priority: domain.PriorityMedium,
		Assignee: domain.DefaultAssignee,
		Status:   domain.StatusPendingSync,
	}
}

func TestSyncSimulatedAdvancesStatuses(t *testing.T) {
	store := seededStore(t, []domain.Task{
		pendingTask("TASK-1", "one"),
		pendingTask("TASK-2", "two"),
		pendingTask("TASK-3", "three"),
		{ID: "TASK-4", Summary: "already done", Status: domain.StatusDone},
	})

	jira := NewJiraService(config.Config{}) // unconfigured
	svc := NewSyncService(store, jira)
	svc.simulateDelay = 0

	result, err := svc.Sync(context.Background(), "PROJ")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	if !result.Success || !result.Simulated || result.Count != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}

	for _, id := range []string{"TASK-1", "TASK-2", "TASK-3"} {
		task, err := store.Get(id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if task.Status != domain.StatusToDo {
			t.Fatalf("task %s: expected To Do, got %q", id, task.Status)
		}
		if task.Synced {
			t.Fatalf("task %s: simulated sync must not mark synced", id)
		}
	}

	done, _ := store.Get("TASK-4")
	if done.Status != domain.StatusDone {
		t.Fatalf("non-pending task touched: %+v", done)
	}
}

func TestSyncCreatesIssuesAndTransitionsTasks(t *testing.T) {
	var payloads []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Basic ") {
			t.Fatalf("missing basic auth header")
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode issue payload: %v", err)
		}
		payloads = append(payloads, payload)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"10001","key":"PROJ-1"}`))
	}))
	defer server.Close()

	store := seededStore(t, []domain.Task{
		pendingTask("TASK-1", "Crear la base de datos"),
		pendingTask("TASK-2", "Diseñar el login"),
	})

	jira := NewJiraService(config.Config{
		JiraDomain:   "example.atlassian.net",
		JiraEmail:    "pm@example.com",
		JiraAPIToken: "token",
	})
	jira.baseURL = server.URL

	svc := NewSyncService(store, jira)
	svc.simulateDelay = 0

	result, err := svc.Sync(context.Background(), "PROJ")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	if !result.Success || result.Simulated {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Created) != 2 {
		t.Fatalf("expected 2 created, got %v", result.Created)
	}

	for _, id := range []string{"TASK-1", "TASK-2"} {
		task, _ := store.Get(id)
		if task.Status != domain.StatusToDo || !task.Synced {
			t.Fatalf("task %s not transitioned: %+v", id, task)
		}
	}

	fields := payloads[0]["fields"].(map[string]any)
	if fields["project"].(map[string]any)["key"] != "PROJ" {
		t.Fatalf("wrong project key: %v", fields["project"])
	}
	if fields["issuetype"].(map[string]any)["name"] != "Task" {
		t.Fatalf("wrong issue type: %v", fields["issuetype"])
	}
	if fields["priority"].(map[string]any)["name"] != "Medium" {
		t.Fatalf("wrong priority: %v", fields["priority"])
	}
	description := fields["description"].(map[string]any)
	if description["type"] != "doc" {
		t.Fatalf("description is not an ADF doc: %v", description)
	}
}

func TestSyncRecordsPerTaskFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Fields struct {
				Summary string `json:"summary"`
			} `json:"fields"`
		}
		json.NewDecoder(r.Body).Decode(&payload)

		if payload.Fields.Summary == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errorMessages":["field required"]}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	store := seededStore(t, []domain.Task{
		pendingTask("TASK-1", "good one"),
		pendingTask("TASK-2", "bad"),
		pendingTask("TASK-3", "good two"),
	})

	jira := NewJiraService(config.Config{
		JiraDomain:   "example.atlassian.net",
		JiraEmail:    "pm@example.com",
		JiraAPIToken: "token",
	})
	jira.baseURL = server.URL

	svc := NewSyncService(store, jira)
	svc.simulateDelay = 0

	result, err := svc.Sync(context.Background(), "PROJ")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	if result.Success {
		t.Fatalf("expected failure to be reported: %+v", result)
	}
	if len(result.Created) != 2 || len(result.Failed) != 1 {
		t.Fatalf("expected 2 created and 1 failed, got %+v", result)
	}
	if result.Failed[0].ID != "TASK-2" {
		t.Fatalf("wrong failed task: %+v", result.Failed)
	}

	// The failed task stays pending and can be retried later.
	failed, _ := store.Get("TASK-2")
	if failed.Status != domain.StatusPendingSync || failed.Synced {
		t.Fatalf("failed task should stay pending: %+v", failed)
	}

	good, _ := store.Get("TASK-3")
	if good.Status != domain.StatusToDo || !good.Synced {
		t.Fatalf("successful task after failure not transitioned: %+v", good)
	}
}

func TestSyncWithNothingPending(t *testing.T) {
	store := seededStore(t, []domain.Task{
		{ID: "TASK-1", Summary: "done", Status: domain.StatusDone},
	})

	jira := NewJiraService(config.Config{})
	svc := NewSyncService(store, jira)
	svc.simulateDelay = 0

	result, err := svc.Sync(context.Background(), "PROJ")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Count != 0 || !result.Simulated {
		t.Fatalf("unexpected result: %+v", result)
	}
}
