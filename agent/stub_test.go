package agent

import (
	"context"

	"github.com/hupe1980/campaignmesh/tool"
)

// stubProposer bypasses New's own validation to exercise the graph checks.
type stubProposer struct {
	name     string
	handoffs []string
	tools    []tool.Tool
}

func (s *stubProposer) Name() string        { return s.name }
func (s *stubProposer) Description() string { return "" }
func (s *stubProposer) Handoffs() []string  { return s.handoffs }
func (s *stubProposer) Tools() []tool.Tool  { return s.tools }

func (s *stubProposer) Tool(name string) (tool.Tool, bool) {
	for _, t := range s.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

func (s *stubProposer) ProposeStep(context.Context, Conversation) (Step, error) {
	return FinalText{}, nil
}
