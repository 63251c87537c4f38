// Package core provides the foundational domain types shared by every other
// campaignmesh package:
//
//   - Content and Parts (role based conversation messages, JSON round-trippable)
//   - Events (the ordered trace of a turn: agent switches, tool calls, outputs)
//   - State (the typed shared session state: briefings, drafts, scripts)
//   - ExecutionContext (the serializable continuation resumed on the next turn)
//   - TurnContext / ToolContext (scoped execution surfaces for the engine and tools)
//
// Implementation concerns (model calls, persistence, orchestration) live in
// other packages; core keeps small value types and narrow interfaces.
package core
