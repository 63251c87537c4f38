package agent

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/campaignmesh/tool"
)

var (
	// ErrInvalidGraph is wrapped by every graph validation failure.
	ErrInvalidGraph = errors.New("invalid agent graph")
	// ErrUnknownAgent is returned when an agent name does not resolve.
	ErrUnknownAgent = errors.New("unknown agent")
)

// Graph is the validated, immutable set of agents with a designated root.
type Graph struct {
	root   string
	agents map[string]Proposer
	order  []string
}

// NewGraph validates and builds a graph. Checks:
//   - agent names are non-empty and unique
//   - the root exists
//   - every handoff target exists and is not the agent itself
//   - tool names are unique per agent and do not shadow the handoff tool
func NewGraph(root string, agents ...Proposer) (*Graph, error) {
	g := &Graph{root: root, agents: make(map[string]Proposer, len(agents))}

	for _, a := range agents {
		if a == nil || a.Name() == "" {
			return nil, fmt.Errorf("%w: agent without name", ErrInvalidGraph)
		}
		if _, dup := g.agents[a.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate agent %q", ErrInvalidGraph, a.Name())
		}
		g.agents[a.Name()] = a
		g.order = append(g.order, a.Name())
	}

	if _, ok := g.agents[root]; !ok {
		return nil, fmt.Errorf("%w: root agent %q not defined", ErrInvalidGraph, root)
	}

	for _, name := range g.order {
		a := g.agents[name]

		for _, target := range a.Handoffs() {
			if target == name {
				return nil, fmt.Errorf("%w: agent %q hands off to itself", ErrInvalidGraph, name)
			}
			if _, ok := g.agents[target]; !ok {
				return nil, fmt.Errorf("%w: agent %q hands off to undefined agent %q", ErrInvalidGraph, name, target)
			}
		}

		seen := map[string]bool{}
		for _, t := range a.Tools() {
			if t.Name() == tool.HandoffToolName {
				return nil, fmt.Errorf("%w: agent %q binds reserved tool %q", ErrInvalidGraph, name, t.Name())
			}
			if seen[t.Name()] {
				return nil, fmt.Errorf("%w: agent %q binds tool %q twice", ErrInvalidGraph, name, t.Name())
			}
			seen[t.Name()] = true
		}
	}

	return g, nil
}

// Root returns the name of the entry agent.
func (g *Graph) Root() string { return g.root }

// Agent resolves an agent by name.
func (g *Graph) Agent(name string) (Proposer, error) {
	a, ok := g.agents[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, name)
	}
	return a, nil
}

// Has reports whether name is defined.
func (g *Graph) Has(name string) bool {
	_, ok := g.agents[name]
	return ok
}

// Names returns the agent names in definition order.
func (g *Graph) Names() []string { return slices.Clone(g.order) }

// CanHandoff reports whether from may hand off to to.
func (g *Graph) CanHandoff(from, to string) bool {
	a, ok := g.agents[from]
	if !ok || !g.Has(to) {
		return false
	}
	return slices.Contains(a.Handoffs(), to)
}
