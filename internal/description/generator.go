package description

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const appName = "location-description"

// Generator runs a tool-less ADK agent that writes location descriptions.
type Generator struct {
	runner         *runner.Runner
	sessionService session.Service
	runMu          sync.Mutex
}

// NewGenerator creates the description agent on top of llm.
func NewGenerator(llm model.LLM) (*Generator, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "LocationDescriptionWriter",
		Model:       llm,
		Description: "Writes German real estate location descriptions.",
		Instruction: systemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create description agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create description runner: %w", err)
	}

	return &Generator{runner: r, sessionService: sessionService}, nil
}

// Generate runs one prompt in a throwaway session and returns the answer text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.runMu.Lock()
	defer g.runMu.Unlock()

	sessionID := uuid.New().String()
	userID := "description-" + sessionID

	if _, err := g.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", fmt.Errorf("description: create session: %w", err)
	}
	defer func() {
		_ = g.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	message := genai.NewContentFromText(prompt, genai.RoleUser)
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	var out strings.Builder
	for event, err := range g.runner.Run(ctx, userID, sessionID, message, runConfig) {
		if err != nil {
			return "", fmt.Errorf("description: run failed: %w", err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			out.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(out.String()), nil
}

const systemPrompt = "Du bist ein erfahrener Immobilienmakler und Texter. Du beschreibst Wohnlagen sachlich korrekt, " +
	"ansprechend und ausschließlich auf Basis der gelieferten Umgebungsdaten. Du erfindest keine Orte."
