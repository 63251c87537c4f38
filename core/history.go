package core

// TrimHistory returns at most max trailing contents. The cut is moved forward
// to the next user message so a tool call is never separated from its
// result; if no user message follows the cut, only orphaned tool results at
// the front are dropped. max <= 0 disables trimming.
func TrimHistory(history []Content, max int) []Content {
	if max <= 0 || len(history) <= max {
		return history
	}

	cut := len(history) - max

	for i := cut; i < len(history); i++ {
		if history[i].Role == RoleUser {
			return history[i:]
		}
	}

	for cut < len(history) && history[cut].Role == RoleTool {
		cut++
	}

	return history[cut:]
}
