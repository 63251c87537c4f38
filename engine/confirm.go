package engine

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/tool"
)

var affirmatives = [][]string{
	{"yes"}, {"y"}, {"confirm"}, {"confirmed"}, {"approve"}, {"proceed"},
	{"go", "ahead"}, {"ok"}, {"okay"}, {"sure"}, {"do", "it"}, {"publish"},
}

var negations = []string{"no", "not", "don't", "dont", "cancel", "stop", "wait", "never"}

// IsAffirmative reports whether a user message grants a pending confirmation.
// The message must start with an affirmative phrase and contain no negation.
func IsAffirmative(msg string) bool {
	words := strings.FieldsFunc(strings.ToLower(msg), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	if len(words) == 0 {
		return false
	}

	for _, w := range words {
		if slices.Contains(negations, w) {
			return false
		}
	}

	for _, phrase := range affirmatives {
		if len(words) >= len(phrase) && slices.Equal(words[:len(phrase)], phrase) {
			return true
		}
	}

	return false
}

// applyUserReply grants or revokes a pending confirmation based on msg.
func applyUserReply(ec *core.ExecutionContext, msg string) {
	if ec.Pending == nil {
		return
	}

	if IsAffirmative(msg) {
		ec.Pending.Granted = true
		return
	}

	ec.Pending = nil
}

// confirmationRequired builds the in-band result returned instead of running
// a gated tool.
func confirmationRequired(toolName string) *tool.ToolError {
	return tool.NewToolError(toolName, fmt.Sprintf(
		"%s has external side effects and was not executed. "+
			"Summarize the pending action for the user and ask for explicit confirmation. "+
			"After the user agrees, call %s again with exactly the same arguments.",
		toolName, toolName,
	), tool.CodeConfirmationRequired)
}
