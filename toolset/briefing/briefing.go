// Package briefing stores and retrieves research briefings in the shared
// session state.
package briefing

import (
	"fmt"

	"github.com/hupe1980/campaignmesh/core"
	"github.com/hupe1980/campaignmesh/tool"
)

// Tool names.
const (
	WriteToolName = "WriteIntelBriefingTool"
	GetToolName   = "GetIntelBriefingTool"
)

type writeArgs struct {
	IntelBriefing string `json:"intel_briefing" jsonschema:"description=The synthesized briefing text including sources and dates" validate:"required"`
	Key           string `json:"key" jsonschema:"description=Descriptive key to store the briefing under" validate:"required"`
}

type getArgs struct {
	Key string `json:"key" jsonschema:"description=Key the briefing was stored under" validate:"required"`
}

// WriteIntelBriefingTool stores a briefing under a key, replacing any
// previous briefing with that key.
func WriteIntelBriefingTool() tool.Tool {
	return tool.NewTypedTool(WriteToolName,
		"Store a synthesized intel briefing in the shared context under the given key.",
		func(tc *core.ToolContext, in writeArgs) (any, error) {
			tc.Briefings().SetBriefing(in.Key, in.IntelBriefing)
			return fmt.Sprintf("Intel briefing set under key: %s", in.Key), nil
		})
}

// GetIntelBriefingTool reads a briefing. A missing key is reported in-band.
func GetIntelBriefingTool() tool.Tool {
	return tool.NewTypedTool(GetToolName,
		"Read an intel briefing from the shared context by key.",
		func(tc *core.ToolContext, in getArgs) (any, error) {
			text, ok := tc.Briefings().Briefing(in.Key)
			if !ok {
				return fmt.Sprintf("No intel briefing found under key: %s", in.Key), nil
			}
			return text, nil
		})
}
