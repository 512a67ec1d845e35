package http

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ASalazar036/ProyectoFepi/internal/config"
	"github.com/ASalazar036/ProyectoFepi/internal/domain"
	"github.com/ASalazar036/ProyectoFepi/internal/services"
	"github.com/ASalazar036/ProyectoFepi/internal/storage"
)

type API struct {
	cfg      config.Config
	store    *storage.Store
	analysis *services.AnalysisService
	jira     *services.JiraService
	sync     *services.SyncService
}

func NewAPI(cfg config.Config, store *storage.Store, analysis *services.AnalysisService, jira *services.JiraService, sync *services.SyncService) *API {
	return &API{cfg: cfg, store: store, analysis: analysis, jira: jira, sync: sync}
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)

		apiGroup.POST("/analyze", api.handleAnalyze)
		apiGroup.POST("/analyze-file", api.handleAnalyzeFile)
		apiGroup.POST("/transcribe", api.handleTranscribe)
		apiGroup.POST("/mentor", api.handleMentor)

		apiGroup.POST("/sync-jira", api.handleSyncJira)
		apiGroup.GET("/jira-check", api.handleJiraCheck)

		apiGroup.GET("/tasks", api.handleListTasks)
		apiGroup.POST("/tasks", api.handleCreateTask)
		apiGroup.POST("/tasks/batch", api.handleBatchTasks)
		apiGroup.PUT("/tasks/:id", api.handleUpdateTask)
		apiGroup.DELETE("/tasks/:id", api.handleDeleteTask)
	}
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleAnalyze(c *gin.Context) {
	var payload struct {
		Transcript string `json:"transcript" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, "missing transcript")
		return
	}

	analysis, err := a.analysis.Analyze(c.Request.Context(), payload.Transcript)
	if err != nil {
		log.Printf("analysis failed: %v", err)
		respondAIError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func (a *API) handleAnalyzeFile(c *gin.Context) {
	audio, mimeType, ok := a.readAudioUpload(c)
	if !ok {
		return
	}

	analysis, err := a.analysis.AnalyzeAudio(c.Request.Context(), audio, mimeType)
	if err != nil {
		log.Printf("audio analysis failed: %v", err)
		respondAIError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func (a *API) handleTranscribe(c *gin.Context) {
	audio, mimeType, ok := a.readAudioUpload(c)
	if !ok {
		return
	}

	transcript, err := a.analysis.Transcribe(c.Request.Context(), audio, mimeType)
	if err != nil {
		log.Printf("transcription failed: %v", err)
		respondAIError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transcript": transcript})
}

func (a *API) handleMentor(c *gin.Context) {
	var payload struct {
		History []domain.ChatMessage `json:"history"`
		Message string               `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, "missing message")
		return
	}

	reply, err := a.analysis.Mentor(c.Request.Context(), payload.History, payload.Message)
	if err != nil {
		log.Printf("mentor reply failed: %v", err)
		respondAIError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (a *API) handleSyncJira(c *gin.Context) {
	// issues is bound for wire compatibility with older clients; the
	// store is the authoritative source of pending tasks.
	var payload struct {
		Issues     []domain.Task `json:"issues"`
		ProjectKey string        `json:"projectKey"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := a.sync.Sync(c.Request.Context(), payload.ProjectKey)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (a *API) handleJiraCheck(c *gin.Context) {
	if !a.jira.Configured() {
		respondMessage(c, http.StatusServiceUnavailable, "jira is not configured")
		return
	}

	user, email, err := a.jira.Myself(c.Request.Context())
	if err != nil {
		log.Printf("jira credential check failed: %v", err)
		respondError(c, http.StatusBadGateway, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "email": email})
}

func (a *API) handleListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, a.store.List())
}

func (a *API) handleCreateTask(c *gin.Context) {
	var task domain.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid task")
		return
	}

	now := time.Now()
	task.ID = domain.NewTaskID()
	if task.Status == "" {
		task.Status = domain.StatusToDo
	}
	if task.Assignee == "" {
		task.Assignee = domain.DefaultAssignee
	}
	task.CreatedAt = now.Unix()
	task.UpdatedAt = now.Unix()

	if err := a.store.Insert(task); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "task": task})
}

func (a *API) handleBatchTasks(c *gin.Context) {
	var incoming []domain.Task
	if err := c.ShouldBindJSON(&incoming); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid task batch")
		return
	}

	now := time.Now()
	tasks := make([]domain.Task, 0, len(incoming))
	for _, task := range incoming {
		tasks = append(tasks, domain.ApplyIngestionDefaults(task, now))
	}

	if err := a.store.Append(tasks); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(tasks)})
}

func (a *API) handleUpdateTask(c *gin.Context) {
	var task domain.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid task")
		return
	}

	task.UpdatedAt = time.Now().Unix()
	updated, err := a.store.Update(c.Param("id"), task)
	if err != nil {
		status := http.StatusNotFound
		if !strings.Contains(err.Error(), "not found") {
			status = http.StatusInternalServerError
		}
		respondMessage(c, status, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "task": updated})
}

func (a *API) handleDeleteTask(c *gin.Context) {
	if err := a.store.Delete(c.Param("id")); err != nil {
		status := http.StatusNotFound
		if !strings.Contains(err.Error(), "not found") {
			status = http.StatusInternalServerError
		}
		respondMessage(c, status, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// readAudioUpload pulls the multipart audio field fully into memory.
// Recordings are ephemeral provider input, never persisted here.
func (a *API) readAudioUpload(c *gin.Context) ([]byte, string, bool) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "missing audio file")
		return nil, "", false
	}

	upload, err := fileHeader.Open()
	if err != nil {
		log.Printf("error opening upload: %v", err)
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return nil, "", false
	}
	defer upload.Close()

	audio, err := io.ReadAll(upload)
	if err != nil {
		log.Printf("error reading upload: %v", err)
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return nil, "", false
	}

	return audio, audioMIME(fileHeader, audio), true
}

func audioMIME(fileHeader *multipart.FileHeader, audio []byte) string {
	if mimeType := fileHeader.Header.Get("Content-Type"); mimeType != "" {
		return mimeType
	}
	return http.DetectContentType(audio)
}

func respondAIError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrProviderUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, services.ErrProvider),
		errors.Is(err, services.ErrTranscriptionFailed),
		errors.Is(err, services.ErrMalformedResponse):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": "error procesando con IA", "details": err.Error()})
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
