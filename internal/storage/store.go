package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ASalazar036/ProyectoFepi/internal/domain"
)

// Store keeps the authoritative copy of all tasks in a single JSON
// document, rewritten in full on every mutation. A single mutex
// serializes mutations so concurrent requests cannot interleave their
// read-modify-write cycles.
type Store struct {
	mu    sync.RWMutex
	path  string
	tasks []domain.Task
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	store := &Store{path: filepath.Join(baseDir, "tasks.json")}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = []domain.Task{}

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("open tasks file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&s.tasks); err != nil {
		if errors.Is(err, io.EOF) {
			return s.saveLocked()
		}
		return fmt.Errorf("decode tasks file: %w", err)
	}

	return nil
}

func (s *Store) List() []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]domain.Task, len(s.tasks))
	copy(tasks, s.tasks)
	return tasks
}

func (s *Store) ListByStatus(status string) []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]domain.Task, 0)
	for _, task := range s.tasks {
		if task.Status == status {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

func (s *Store) Get(id string) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, task := range s.tasks {
		if task.ID == id {
			return task, nil
		}
	}
	return domain.Task{}, fmt.Errorf("task %s not found", id)
}

// Insert appends a single task. The caller must have assigned the id;
// the store never generates identifiers.
func (s *Store) Insert(task domain.Task) error {
	if task.ID == "" {
		return errors.New("task id must be set before insert")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = append(s.tasks, task)
	return s.saveLocked()
}

// Append adds a batch of tasks behind the existing contents. Batches
// are never merged with existing records.
func (s *Store) Append(tasks []domain.Task) error {
	for _, task := range tasks {
		if task.ID == "" {
			return errors.New("task id must be set before insert")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = append(s.tasks, tasks...)
	return s.saveLocked()
}

// Update replaces the task with the given id in full.
func (s *Store) Update(id string, task domain.Task) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			task.ID = id
			if task.CreatedAt == 0 {
				task.CreatedAt = s.tasks[i].CreatedAt
			}
			s.tasks[i] = task

			if err := s.saveLocked(); err != nil {
				return domain.Task{}, err
			}
			return task, nil
		}
	}
	return domain.Task{}, fmt.Errorf("task %s not found", id)
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return s.saveLocked()
		}
	}
	return fmt.Errorf("task %s not found", id)
}

func (s *Store) saveLocked() error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "tasks-*.json")
	if err != nil {
		return fmt.Errorf("create temp tasks file: %w", err)
	}

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.tasks); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode tasks: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp tasks file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace tasks file: %w", err)
	}

	return nil
}
