package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirestoreProfiles_WriteProfile(t *testing.T) {
	var (
		gotPath, gotMethod, gotAuth string
		gotDoc                      struct {
			Fields map[string]map[string]any `json:"fields"`
		}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod, gotAuth = r.URL.Path, r.Method, r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotDoc))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	writer := NewFirestoreProfiles(srv.URL, "pixgram-test", srv.Client())
	err := writer.WriteProfile(context.Background(), "id-token", Profile{
		ID:        "uid-1",
		Email:     "ada@example.com",
		Name:      "ada",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/v1/projects/pixgram-test/databases/(default)/documents/users/uid-1", gotPath)
	assert.Equal(t, "Bearer id-token", gotAuth)
	assert.Equal(t, "user", gotDoc.Fields["role"]["stringValue"])
	assert.Equal(t, "ada", gotDoc.Fields["name"]["stringValue"])
	assert.Equal(t, "2026-01-02T03:04:05Z", gotDoc.Fields["created_at"]["stringValue"])
	assert.Contains(t, gotDoc.Fields["followers"], "arrayValue")
}

func TestFirestoreProfiles_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	writer := NewFirestoreProfiles(srv.URL, "pixgram-test", srv.Client())
	err := writer.WriteProfile(context.Background(), "id-token", Profile{ID: "uid-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestFirestoreProfiles_RequiresProject(t *testing.T) {
	writer := NewFirestoreProfiles("", "", http.DefaultClient)
	assert.Error(t, writer.WriteProfile(context.Background(), "t", Profile{ID: "u"}))
}
