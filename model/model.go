package model

import (
	"context"
	"errors"

	"github.com/hupe1980/campaignmesh/core"
)

// ToolDefinition advertises one tool to the model.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition is the name, description and JSON Schema of a tool.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// NewFunctionDefinition is a shorthand for a function ToolDefinition.
func NewFunctionDefinition(name, description string, parameters map[string]any) ToolDefinition {
	return ToolDefinition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// Request is one call to a model: the resolved instruction of the active
// agent, its recent history and the tools it may call.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage reports what a provider billed for a response, when it says.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a model reply. Providers may send Partial chunks before the
// final one; Complete keeps only the last final reply.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"`
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info names a model and its provider.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model generates replies. Implementations close both channels when done and
// send at most one error.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)
	Info() Info
}

// ErrNoResponse is returned by Complete when a model closes its stream
// without a final response.
var ErrNoResponse = errors.New("model returned no final response")

// Complete drives a Generate call to completion and returns the final
// (non-partial) response. Partial chunks are discarded.
func Complete(ctx context.Context, m Model, req Request) (Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var (
		final    Response
		hasFinal bool
	)

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final, hasFinal = r, true
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return Response{}, err
			}
		}
	}

	if !hasFinal {
		return Response{}, ErrNoResponse
	}

	return final, nil
}

// CompleteText is a single-shot helper for prompt -> text completions.
func CompleteText(ctx context.Context, m Model, instructions, prompt string) (string, error) {
	resp, err := Complete(ctx, m, Request{
		Instructions: instructions,
		Contents:     []core.Content{core.NewTextContent(core.RoleUser, prompt)},
	})
	if err != nil {
		return "", err
	}

	return resp.Content.Text(), nil
}
