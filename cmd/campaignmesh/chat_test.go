package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/config"
	"github.com/hupe1980/campaignmesh/engine"
	"github.com/hupe1980/campaignmesh/internal/testutil"
	"github.com/hupe1980/campaignmesh/model"
	"github.com/hupe1980/campaignmesh/runner"
	"github.com/hupe1980/campaignmesh/session"
)

func newTestRunner(t *testing.T, replies ...model.Response) *runner.Runner {
	t.Helper()

	sessions, err := session.NewManager(context.Background(), session.NewMemoryStore(), func(o *session.Options) {
		o.RootAgent = testutil.RootAgent
	})
	require.NoError(t, err)

	llm := model.NewScriptedModel("scripted", replies...)

	r, err := runner.New(context.Background(), sessions, func() (*engine.Engine, error) {
		return testutil.ScriptedEngine(t, llm), nil
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(context.Background()) })

	return r
}

func TestREPL(t *testing.T) {
	color.NoColor = true

	r := newTestRunner(t, model.TextResponse("What topic?"), model.TextResponse("On it."))
	first := r.SessionID()

	in := strings.NewReader("Hello\n\n/sessions\n/reset\n/load " + first + "\nEVs\n/bogus\n/exit\nignored\n")
	var out bytes.Buffer

	require.NoError(t, repl(context.Background(), in, &out, r))

	text := out.String()
	assert.Contains(t, text, "ai> What topic?")
	assert.Contains(t, text, first+"  (untitled)")
	assert.Contains(t, text, runner.ResetMessage)
	assert.Contains(t, text, "you> Hello\nWhat topic?\nyou> ")
	assert.Contains(t, text, "ai> On it.")
	assert.Contains(t, text, "unknown command /bogus")
	assert.NotContains(t, text, "ignored")
	assert.Equal(t, first, r.SessionID())
}

func TestREPL_LoadUnknown(t *testing.T) {
	color.NoColor = true

	r := newTestRunner(t)

	var out bytes.Buffer
	require.NoError(t, repl(context.Background(), strings.NewReader("/load nope\n/load\n"), &out, r))

	assert.Contains(t, out.String(), "context not found")
	assert.Contains(t, out.String(), "usage: /load <id>")
}

func TestNewModel_Scripted(t *testing.T) {
	m, err := newModel(context.Background(), config.ModelConfig{Provider: "scripted"}, "", nil)
	require.NoError(t, err)

	text, err := model.CompleteText(context.Background(), m, "", "ping")
	require.NoError(t, err)
	assert.Equal(t, "You said: ping", text)
}

func TestNewModel_Unsupported(t *testing.T) {
	_, err := newModel(context.Background(), config.ModelConfig{Provider: "bedrock"}, "", nil)
	require.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	store, err := openStore(config.SessionConfig{Backend: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &session.FileStore{}, store)

	store, err = openStore(config.SessionConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &session.MemoryStore{}, store)

	_, err = openStore(config.SessionConfig{Backend: "redis"})
	require.Error(t, err)
}
