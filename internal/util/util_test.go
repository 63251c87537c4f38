package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("Now: {{.CurrentTime}} <{{upper .Name}}>", map[string]any{
		"CurrentTime": "2025-04-24 10:00:00",
		"Name":        "manager",
	})
	require.NoError(t, err)
	assert.Equal(t, "Now: 2025-04-24 10:00:00 <MANAGER>", out)
}

func TestRenderTemplate_NoMarkers(t *testing.T) {
	out, err := RenderTemplate("plain <b>text</b>", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain <b>text</b>", out)
}

func TestRenderTemplate_ParseError(t *testing.T) {
	_, err := RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x":    map[string]any{"type": "integer"},
			"sort": map[string]any{"type": "string", "enum": []string{"relevance", "recent"}},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"x": 5.0, "sort": "recent"}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	err = ValidateParameters(map[string]any{"x": "nope"}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "expected type integer")

	err = ValidateParameters(map[string]any{"x": 1, "sort": "oldest"}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "sort", vErr.Field)
}

func TestRequiredFields(t *testing.T) {
	assert.Equal(t, []string{"a"}, RequiredFields(map[string]any{"required": []string{"a"}}))
	assert.Equal(t, []string{"b"}, RequiredFields(map[string]any{"required": []any{"b", 3}}))
	assert.Nil(t, RequiredFields(map[string]any{}))
}
