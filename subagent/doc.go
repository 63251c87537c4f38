// Package subagent holds single-shot model helpers that run outside the
// agent graph: the session TitleGenerator and the content Reviewer.
package subagent
