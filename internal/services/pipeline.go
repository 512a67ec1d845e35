package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ASalazar036/ProyectoFepi/internal/domain"
)

var analysisSystemPrompt = `Actúa como un experto Project Manager y Scrum Master.
Analiza la siguiente transcripción de una reunión técnica y extrae una lista de tareas concretas.

INSTRUCCIONES CLAVE DE ASIGNACIÓN:
1. Si la transcripción menciona a una persona (ej: "Juan", "Maria", "el equipo de diseño"), ASIGNA la tarea a esa persona/equipo en el campo 'assignee'.
2. Si no se menciona a nadie explícitamente, usa "Unassigned".
3. Intenta inferir fechas de entrega en 'dueDate' (Formato YYYY-MM-DD) si se mencionan (ej: "para el viernes").

IMPORTANTE: Devuelve la respuesta ÚNICAMENTE en formato JSON puro. No uses bloques de código markdown.

Estructura JSON requerida:
{
  "sentiment": "One word describing the meeting mood (e.g., Productive, Tense, Energetic, Neutral)",
  "issues": [
    {
      "summary": "Titulo corto de la tarea",
      "description": "Descripción técnica detallada",
      "type": "Task" (o Bug, Story),
      "priority": "High" (o Medium, Low),
      "assignee": "Nombre o Unassigned",
      "dueDate": "YYYY-MM-DD o null"
    }
  ]
}`

var audioAnalysisPrompt = `Escucha este audio de una reunión técnica. Actúa como Project Manager.
Identifica las tareas, decisiones y asignaciones mencionadas.

INSTRUCCIONES CLAVE DE ASIGNACIÓN:
1. Extrae nombres de personas responsables (ej: "Juan lo hará") y ponlos en 'assignee'.
2. Si hay fechas (ej: "para mañana"), ponlas en 'dueDate' (YYYY-MM-DD).

IMPORTANTE: Devuelve ÚNICAMENTE un objeto JSON con esta estructura:
{
  "sentiment": "One word describing the meeting mood (e.g., Productive, Tense, Energetic, Neutral)",
  "issues": [
    {
      "summary": "Task title",
      "type": "Task" | "Bug" | "Story",
      "priority": "High" | "Medium" | "Low",
      "description": "Short description",
      "assignee": "Name or Unassigned",
      "dueDate": "YYYY-MM-DD"
    }
  ]
}`

var mentorSystemPrompt = `Eres 'MentorIA', un asistente docente universitario experto en Metodologías Ágiles (Scrum) y Jira.
Tu objetivo es ayudar a estudiantes a organizar sus proyectos.
Sé breve, amigable y profesional.`

// AnalysisService turns raw meeting input (text or audio) into a
// structured analysis by composing the active provider with JSON
// extraction.
type AnalysisService struct {
	provider Provider
}

func NewAnalysisService(provider Provider) *AnalysisService {
	return &AnalysisService{provider: provider}
}

// Analyze extracts tasks from an already-transcribed meeting.
func (s *AnalysisService) Analyze(ctx context.Context, transcript string) (domain.MeetingAnalysis, error) {
	raw, err := s.provider.Generate(ctx, GenerationRequest{
		Prompt:            fmt.Sprintf("Transcripción de la reunión: %q", transcript),
		SystemInstruction: analysisSystemPrompt,
	})
	if err != nil {
		return domain.MeetingAnalysis{}, err
	}

	return decodeAnalysis(raw)
}

// AnalyzeAudio extracts tasks straight from a recording. The cloud
// provider answers with one multimodal call; the local provider
// transcribes first and analyzes second.
func (s *AnalysisService) AnalyzeAudio(ctx context.Context, audio []byte, mimeType string) (domain.MeetingAnalysis, error) {
	raw, err := s.provider.AnalyzeAudio(ctx, audio, mimeType, audioAnalysisPrompt)
	if err != nil {
		return domain.MeetingAnalysis{}, err
	}

	return decodeAnalysis(raw)
}

func (s *AnalysisService) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return s.provider.Transcribe(ctx, audio, mimeType)
}

// Mentor answers a free-form chat message in the MentorIA persona,
// with recent history folded into the prompt for follow-up context.
func (s *AnalysisService) Mentor(ctx context.Context, history []domain.ChatMessage, message string) (string, error) {
	prompt := &strings.Builder{}
	for _, msg := range history {
		fmt.Fprintf(prompt, "%s: %s\n", msg.Role, msg.Content)
	}
	fmt.Fprintf(prompt, "El estudiante pregunta: %q", message)

	return s.provider.Generate(ctx, GenerationRequest{
		Prompt:            prompt.String(),
		SystemInstruction: mentorSystemPrompt,
	})
}

func decodeAnalysis(raw string) (domain.MeetingAnalysis, error) {
	var analysis domain.MeetingAnalysis
	if err := ExtractJSON(raw, &analysis); err != nil {
		return domain.MeetingAnalysis{}, err
	}
	return analysis, nil
}
