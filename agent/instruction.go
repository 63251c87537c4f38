package agent

import (
	"time"

	"github.com/hupe1980/campaignmesh/internal/util"
)

// InstructionData is what an instruction template can reference.
type InstructionData struct {
	AgentName   string
	CurrentTime string // util.TimeLayout
	Handoffs    []string
	Now         time.Time
}

// Instruction is an agent's system prompt. It is resolved on every model
// call so that time placeholders stay current.
type Instruction struct {
	template string
	build    func(InstructionData) (string, error)
}

// NewInstructionFromText parses text as a text/template, for example
// "The current time is {{.CurrentTime}}."
func NewInstructionFromText(text string) Instruction { return Instruction{template: text} }

// NewInstructionFromFunc computes the prompt in code.
func NewInstructionFromFunc(fn func(InstructionData) (string, error)) Instruction {
	return Instruction{build: fn}
}

// Resolve renders the prompt for data.
func (i Instruction) Resolve(data InstructionData) (string, error) {
	if i.build != nil {
		return i.build(data)
	}

	return util.RenderTemplate(i.template, data)
}
