// Package runner implements the workflow service that sits between the
// outer surfaces (HTTP server, CLI) and the engine.
//
// A Runner owns the active conversation: its session id, the ExecutionContext
// carried from turn to turn and the chat transcript. Each Chat call runs one
// engine turn, updates the in-memory conversation synchronously and then
// hands a snapshot to the session manager, which persists it in the
// background. Reset rebuilds the agent graph wholesale.
package runner
