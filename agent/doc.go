// Package agent defines the nodes of the handoff graph.
//
// An Agent is a named role: templated system instructions, a restricted tool
// set and the fixed list of agents it may hand off to. Each engine step asks
// the active agent to propose exactly one of three outcomes:
//
//   - ToolCalls: execute the requested tools and feed results back
//   - Handoff:   transfer control to another agent
//   - FinalText: the agent is done; its text is the candidate response
//
// The engine depends only on the Proposer interface so tests can drive it with
// scripted agents. Graph validates referential integrity of the handoff
// topology once at construction.
package agent
