// Package engine drives a single conversation turn through the agent graph.
//
// A turn starts at the agent selected by the ResumePolicy and loops: the
// active agent proposes a step, the engine applies it, and the loop ends when
// an agent emits text without a further tool call or handoff.
//
// # Step handling
//
//   - ToolCalls: tools run strictly in the requested order against the shared
//     State. Failures and panics become textual tool results so the agent can
//     react in-band.
//   - Handoff: the target must be in the active agent's permitted set.
//     Rejections are fed back as a tool result and the same agent continues.
//   - FinalText: terminates the loop.
//
// # Response selection
//
// The last non-empty text of the turn is the response, with a leading
// "assistant:" marker removed. When no agent produced text the engine answers
// with FallbackResponse. MaxSteps bounds handoff cycles driven by the model.
//
// # Confirmation gate
//
// Tools implementing tool.Confirmable are not executed on first request.
// The engine records a PendingConfirmation in the ExecutionContext and returns
// a CONFIRMATION_REQUIRED result. An affirmative next user message grants the
// pending call; the grant applies only to the same tool with the same
// arguments and is consumed on use.
//
// # Observability
//
// Every transition is recorded as a core.Event in Result.Events, reported to
// registered Observers and wrapped in OpenTelemetry spans (engine.turn,
// engine.step, engine.tool).
package engine
