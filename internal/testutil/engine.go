package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/agent"
	"github.com/hupe1980/campaignmesh/engine"
	"github.com/hupe1980/campaignmesh/model"
	"github.com/hupe1980/campaignmesh/tool"
)

// RootAgent is the agent name used by ScriptedEngine.
const RootAgent = "ManagerAgent"

// ScriptedEngine builds an engine around a single root agent driven by llm.
func ScriptedEngine(t testing.TB, llm model.Model, tools ...tool.Tool) *engine.Engine {
	t.Helper()

	root, err := agent.New(RootAgent, llm, func(o *agent.Options) {
		o.Instruction = agent.NewInstructionFromText("You manage the campaign.")
		o.Tools = tools
	})
	require.NoError(t, err)

	g, err := agent.NewGraph(RootAgent, root)
	require.NoError(t, err)

	e, err := engine.New(g)
	require.NoError(t, err)

	return e
}
