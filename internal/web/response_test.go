package web

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easelhq/easel/internal/log"
)

// decodeErrorEnvelope unmarshals a {"error": {...}} response body.
func decodeErrorEnvelope(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding error envelope: %v (body: %s)", err, w.Body.String())
	}
	if env.Error == nil {
		t.Fatalf("response carries no error body: %s", w.Body.String())
	}
	return *env.Error
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	writeJSON(w, 200, map[string]string{"message": "hello"}, log.NewNop())

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, strconv.Itoa(w.Body.Len()), w.Header().Get("Content-Length"),
		"body is buffered first so Content-Length is exact")

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Data)
	assert.Nil(t, env.Error)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", data["message"])
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	writeError(w, 409, "stream_active", "a generation is already in flight", log.NewNop())

	assert.Equal(t, 409, w.Code)

	body := decodeErrorEnvelope(t, w)
	assert.Equal(t, "stream_active", body.Code)
	assert.Equal(t, "a generation is already in flight", body.Message)
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	w := httptest.NewRecorder()

	// Channels cannot be JSON-encoded; the failure must become a clean
	// 500 rather than a torn 200 body.
	writeJSON(w, 200, map[string]any{"bad": make(chan int)}, log.NewNop())

	assert.Equal(t, 500, w.Code)
}
