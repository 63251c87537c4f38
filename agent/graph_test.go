package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/model"
	"github.com/hupe1980/campaignmesh/tool"
)

func mustAgent(t *testing.T, name string, handoffs ...string) *Agent {
	t.Helper()
	a, err := New(name, model.NewScriptedModel("m"), func(o *Options) { o.Handoffs = handoffs })
	require.NoError(t, err)
	return a
}

func TestNewGraph_Valid(t *testing.T) {
	g, err := NewGraph("ManagerAgent",
		mustAgent(t, "ManagerAgent", "NewsAgent"),
		mustAgent(t, "NewsAgent", "ManagerAgent", "BriefWriterAgent"),
		mustAgent(t, "BriefWriterAgent", "ManagerAgent"),
	)
	require.NoError(t, err)

	assert.Equal(t, "ManagerAgent", g.Root())
	assert.Equal(t, []string{"ManagerAgent", "NewsAgent", "BriefWriterAgent"}, g.Names())
	assert.True(t, g.CanHandoff("NewsAgent", "BriefWriterAgent"))
	assert.False(t, g.CanHandoff("ManagerAgent", "BriefWriterAgent"))
	assert.False(t, g.CanHandoff("Ghost", "ManagerAgent"))

	a, err := g.Agent("NewsAgent")
	require.NoError(t, err)
	assert.Equal(t, "NewsAgent", a.Name())

	_, err = g.Agent("Ghost")
	require.ErrorIs(t, err, ErrUnknownAgent)
}

func TestNewGraph_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		root   string
		agents func(t *testing.T) []Proposer
	}{
		{"missing root", "ManagerAgent", func(t *testing.T) []Proposer {
			return []Proposer{mustAgent(t, "NewsAgent")}
		}},
		{"duplicate", "A", func(t *testing.T) []Proposer {
			return []Proposer{mustAgent(t, "A"), mustAgent(t, "A")}
		}},
		{"dangling target", "A", func(t *testing.T) []Proposer {
			return []Proposer{mustAgent(t, "A", "B")}
		}},
		{"self handoff", "A", func(t *testing.T) []Proposer {
			return []Proposer{mustAgent(t, "A", "A")}
		}},
		{"reserved tool", "A", func(t *testing.T) []Proposer {
			return []Proposer{&stubProposer{name: "A", tools: []tool.Tool{noopTool(tool.HandoffToolName)}}}
		}},
		{"duplicate tool", "A", func(t *testing.T) []Proposer {
			return []Proposer{&stubProposer{name: "A", tools: []tool.Tool{noopTool("x"), noopTool("x")}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(tt.root, tt.agents(t)...)
			require.ErrorIs(t, err, ErrInvalidGraph)
		})
	}
}
