// Package model is the seam between agents and language model providers.
//
// Agents build a Request from their instruction, history and tools and call
// Complete, which waits for the final Response of a Model. The gemini, openai
// and anthropic sub-packages adapt vendor SDKs to that interface. Breaker
// guards a provider with a circuit breaker, and ScriptedModel and
// ResponderModel replay canned replies for tests and offline runs.
package model
