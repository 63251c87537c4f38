package tool

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/hupe1980/campaignmesh/core"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// SchemaFor reflects a flat JSON schema from the struct type T. Field
// descriptions come from `jsonschema:"description=..."` tags; fields without
// `omitempty` are required.
func SchemaFor[T any]() map[string]any {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}

	raw, err := json.Marshal(r.Reflect(new(T)))
	if err != nil {
		panic(fmt.Sprintf("tool: reflect schema: %v", err))
	}

	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		panic(fmt.Sprintf("tool: decode schema: %v", err))
	}

	delete(schema, "$schema")
	delete(schema, "$id")

	return schema
}

// NewTypedTool builds a FunctionTool whose schema is reflected from T and whose
// arguments are decoded into T and checked against its `validate` tags before
// fn runs.
//
//	type briefingArgs struct {
//	    Key  string `json:"key" jsonschema:"description=Briefing key" validate:"required"`
//	    Text string `json:"text" validate:"required"`
//	}
//
//	tool.NewTypedTool("WriteIntelBriefingTool", "...", func(tc *core.ToolContext, in briefingArgs) (any, error) { ... })
func NewTypedTool[T any](
	name, description string,
	fn func(toolCtx *core.ToolContext, in T) (any, error),
	opts ...Option,
) *FunctionTool {
	call := func(tc *core.ToolContext, args map[string]any) (any, error) {
		in, err := DecodeArgs[T](args)
		if err != nil {
			return nil, &ToolError{Tool: name, Message: err.Error(), Code: CodeValidation, Details: err}
		}
		return fn(tc, in)
	}

	return NewFunctionTool(name, description, SchemaFor[T](), call, opts...)
}

// DecodeArgs converts a generic argument map into T and validates it.
func DecodeArgs[T any](args map[string]any) (T, error) {
	var in T

	raw, err := json.Marshal(args)
	if err != nil {
		return in, fmt.Errorf("encode arguments: %w", err)
	}

	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("decode arguments: %w", err)
	}

	if err := structValidator().Struct(in); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return in, &ValidationError{
				Field:   fe.Field(),
				Value:   fe.Value(),
				Message: fmt.Sprintf("failed '%s' constraint", fe.Tag()),
			}
		}
		return in, err
	}

	return in, nil
}
