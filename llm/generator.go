package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Generator is the generative-text backend the dialogue engine and
// handlers depend on. Injected so tests can substitute fakes.
type Generator interface {
	// GenerateText returns a free-text completion for the prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateJSON asks the model for a JSON object and decodes it into
	// out. A refusal, empty completion or undecodable payload returns a
	// *ParseError; out may be partially written and must be discarded.
	GenerateJSON(ctx context.Context, prompt string, out any) error
}

// ParseError means the backend returned no usable result: a refusal, an
// empty completion, or output that failed to decode. Callers treat it as
// fatal to the operation; it is never retried here.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation produced no usable result: %v", e.Err)
	}
	return "generation produced no usable result"
}

func (e *ParseError) Unwrap() error { return e.Err }

// Gemini implements Generator on top of the genai client. The client is
// constructed once at startup and shared; the struct itself is stateless.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func NewGemini(client *genai.Client, model string) *Gemini {
	return &Gemini{
		client:      client,
		model:       model,
		temperature: 0.8,
		maxTokens:   2048,
	}
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](g.temperature),
		MaxOutputTokens: g.maxTokens,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		genConfig)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &ParseError{Err: fmt.Errorf("empty completion")}
	}
	return text, nil
}

func (g *Gemini) GenerateJSON(ctx context.Context, prompt string, out any) error {
	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](g.temperature),
		MaxOutputTokens:  g.maxTokens,
		ResponseMIMEType: "application/json",
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		genConfig)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return &ParseError{Err: fmt.Errorf("empty completion")}
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &ParseError{Raw: text, Err: err}
	}
	return nil
}
