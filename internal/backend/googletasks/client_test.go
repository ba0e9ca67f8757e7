package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewWithEndpoint(context.Background(), srv.Client(), srv.URL+"/")
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestListTasks_AllListsAllPages(t *testing.T) {
	c := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tasks/v1/users/@me/lists":
			writeJSON(w, map[string]any{"items": []map[string]string{
				{"id": "L1", "title": "My Tasks"},
				{"id": "L2", "title": "Work"},
			}})
		case "/tasks/v1/lists/L1/tasks":
			assert.Equal(t, "false", r.URL.Query().Get("showCompleted"))
			if r.URL.Query().Get("pageToken") == "" {
				writeJSON(w, map[string]any{
					"items":         []map[string]string{{"id": "t1", "title": "Pay rent", "due": "2025-04-10T00:00:00.000Z"}},
					"nextPageToken": "p2",
				})
				return
			}
			writeJSON(w, map[string]any{"items": []map[string]string{{"id": "t2", "title": "Call mom"}}})
		case "/tasks/v1/lists/L2/tasks":
			writeJSON(w, map[string]any{"items": []map[string]string{{"id": "t3", "title": "Write report", "due": "2025-04-11T00:00:00Z"}}})
		default:
			http.NotFound(w, r)
		}
	})

	tasks, err := c.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, "t1", tasks[0].ID)
	assert.Equal(t, "My Tasks", tasks[0].List)
	require.NotNil(t, tasks[0].Due)
	assert.True(t, tasks[0].Due.Equal(time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, "t2", tasks[1].ID)
	assert.Nil(t, tasks[1].Due)

	assert.Equal(t, "t3", tasks[2].ID)
	assert.Equal(t, "Work", tasks[2].List)
}

func TestListTasks_AuthError(t *testing.T) {
	c := fakeAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
	})

	_, err := c.ListTasks(context.Background())
	require.Error(t, err)
	assert.Equal(t, "token expired or revoked (run: duewatch login)", err.Error())
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(nil))
	assert.EqualError(t, wrapError(errors.New("Get x: context deadline exceeded")), "request timed out")
	assert.EqualError(t, wrapError(errors.New("googleapi: Error 403: forbidden")), "token expired or revoked (run: duewatch login)")
	assert.EqualError(t, wrapError(errors.New("googleapi: Error 404: gone")), "not found")
	assert.EqualError(t, wrapError(errors.New("boom")), "boom")
}
