package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/campaignmesh/session"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeWorkflow struct {
	chatErr  error
	resetErr error
	messages []string
	resets   int
	contexts string
	stored   map[string][]string
}

func (f *fakeWorkflow) Chat(_ context.Context, message string) (string, error) {
	if f.chatErr != nil {
		return "", f.chatErr
	}
	f.messages = append(f.messages, message)
	return "echo: " + message, nil
}

func (f *fakeWorkflow) Reset(context.Context) (string, error) {
	if f.resetErr != nil {
		return "", f.resetErr
	}
	f.resets++
	return "Workflow reset successfully.", nil
}

func (f *fakeWorkflow) ContextsJSON() (string, error) { return f.contexts, nil }

func (f *fakeWorkflow) Load(_ context.Context, id string) ([]string, error) {
	h, ok := f.stored[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	if h == nil {
		return nil, errors.New("disk on fire")
	}
	return h, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}

	return rec.Code, out
}

func TestRoutesAtRootAndBasePath(t *testing.T) {
	wf := &fakeWorkflow{contexts: "{}"}
	h := New(wf).Handler()

	for _, prefix := range []string{"", "/api"} {
		code, body := do(t, h, http.MethodPost, prefix+"/chat", `{"message":"Write about EVs"}`)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "echo: Write about EVs", body["response"])

		code, body = do(t, h, http.MethodGet, prefix+"/get-contexts", "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "{}", body["contexts"])
	}

	code, body := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, WelcomeMessage, body["message"])

	assert.Equal(t, []string{"Write about EVs", "Write about EVs"}, wf.messages)
}

func TestChat_InvalidBody(t *testing.T) {
	h := New(&fakeWorkflow{}).Handler()

	code, body := do(t, h, http.MethodPost, "/chat", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body["detail"], "Invalid request")
}

func TestChat_Failure(t *testing.T) {
	h := New(&fakeWorkflow{chatErr: context.Canceled}).Handler()

	code, body := do(t, h, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Error processing request: context canceled", body["detail"])
}

func TestReset(t *testing.T) {
	wf := &fakeWorkflow{}
	h := New(wf).Handler()

	code, body := do(t, h, http.MethodPost, "/api/reset", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Workflow reset successfully.", body["message"])
	assert.Equal(t, 1, wf.resets)

	wf.resetErr = errors.New("boom")
	code, body = do(t, h, http.MethodPost, "/reset", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Error resetting workflow: boom", body["detail"])
}

func TestLoadContext(t *testing.T) {
	wf := &fakeWorkflow{stored: map[string][]string{
		"s1":     {"Hi", "Hello"},
		"broken": nil,
	}}
	h := New(wf).Handler()

	code, body := do(t, h, http.MethodPost, "/api/load-context?id=s1", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"Hi", "Hello"}, body["chat_history"])

	code, body = do(t, h, http.MethodPost, "/api/load-context?id=unknown", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Context not found.", body["detail"])

	code, body = do(t, h, http.MethodPost, "/api/load-context?id=broken", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Error loading context: disk on fire", body["detail"])

	code, _ = do(t, h, http.MethodPost, "/api/load-context", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestCORS(t *testing.T) {
	h := New(&fakeWorkflow{}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
