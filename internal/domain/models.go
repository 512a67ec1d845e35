package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task statuses as shown on the board. "Pending Sync" marks tasks that
// came out of an analysis and have not been pushed to Jira yet.
const (
	StatusPendingSync = "Pending Sync"
	StatusToDo        = "To Do"
	StatusInProgress  = "In Progress"
	StatusDone        = "Done"
)

const (
	TypeTask  = "Task"
	TypeBug   = "Bug"
	TypeStory = "Story"
)

const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

const DefaultAssignee = "Unassigned"

type Task struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee"`
	DueDate     string `json:"dueDate"`
	Status      string `json:"status"`
	Synced      bool   `json:"synced"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// Issue is a task proposal as extracted by the model, before it gets an
// identifier and default fields.
type Issue struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee"`
	DueDate     string `json:"dueDate"`
}

type MeetingAnalysis struct {
	Sentiment string  `json:"sentiment"`
	Issues    []Issue `json:"issues"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewTaskID mints a globally unique task identifier. Identifiers are
// always assigned by the ingesting side, never by the store.
func NewTaskID() string {
	return fmt.Sprintf("TASK-%s", uuid.NewString())
}

// ApplyIngestionDefaults normalizes a task arriving through the batch
// ingestion endpoint: missing id, status, type, priority, assignee and
// due date are filled; existing values are kept.
func ApplyIngestionDefaults(task Task, now time.Time) Task {
	if task.ID == "" {
		task.ID = NewTaskID()
	}
	if task.Status == "" {
		task.Status = StatusPendingSync
	}
	if task.Type == "" {
		task.Type = TypeTask
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if task.Assignee == "" {
		task.Assignee = DefaultAssignee
	}
	if task.DueDate == "" {
		task.DueDate = now.Format("2006-01-02")
	}
	if task.CreatedAt == 0 {
		task.CreatedAt = now.Unix()
	}
	task.UpdatedAt = now.Unix()
	return task
}
