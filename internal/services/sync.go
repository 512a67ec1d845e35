package services

import (
	"context"
	"log"
	"time"

	"github.com/ASalazar036/ProyectoFepi/internal/domain"
	"github.com/ASalazar036/ProyectoFepi/internal/storage"
)

type SyncResult struct {
	Success   bool          `json:"success"`
	Simulated bool          `json:"simulated,omitempty"`
	Count     int           `json:"count,omitempty"`
	Created   []string      `json:"created,omitempty"`
	Failed    []SyncFailure `json:"failed,omitempty"`
}

type SyncFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// SyncService pushes every task in Pending Sync state to Jira. Each
// task gets an independent outcome: a failure is recorded and the
// remainder keeps going, already-created remote issues are never
// rolled back.
type SyncService struct {
	store         *storage.Store
	jira          *JiraService
	simulateDelay time.Duration
}

func NewSyncService(store *storage.Store, jira *JiraService) *SyncService {
	return &SyncService{
		store:         store,
		jira:          jira,
		simulateDelay: time.Second,
	}
}

// Sync selects pending tasks from the store (the store is
// authoritative, not the caller's snapshot) and dispatches them
// sequentially. Without configured credentials the sync is simulated:
// no outbound call, statuses still advance so the board and the store
// agree, synced stays false.
func (s *SyncService) Sync(ctx context.Context, projectKey string) (SyncResult, error) {
	pending := s.store.ListByStatus(domain.StatusPendingSync)

	if !s.jira.Configured() {
		log.Printf("jira not configured, simulating sync of %d tasks", len(pending))
		time.Sleep(s.simulateDelay)

		for _, task := range pending {
			task.Status = domain.StatusToDo
			task.UpdatedAt = time.Now().Unix()
			if _, err := s.store.Update(task.ID, task); err != nil {
				return SyncResult{}, err
			}
		}
		return SyncResult{Success: true, Simulated: true, Count: len(pending)}, nil
	}

	result := SyncResult{Created: []string{}, Failed: []SyncFailure{}}
	for _, task := range pending {
		if err := s.jira.CreateIssue(ctx, projectKey, task); err != nil {
			log.Printf("sync of task %s failed: %v", task.ID, err)
			result.Failed = append(result.Failed, SyncFailure{ID: task.ID, Error: err.Error()})
			continue
		}

		task.Status = domain.StatusToDo
		task.Synced = true
		task.UpdatedAt = time.Now().Unix()
		if _, err := s.store.Update(task.ID, task); err != nil {
			result.Failed = append(result.Failed, SyncFailure{ID: task.ID, Error: err.Error()})
			continue
		}
		result.Created = append(result.Created, task.Summary)
	}

	result.Success = len(result.Failed) == 0
	return result, nil
}
