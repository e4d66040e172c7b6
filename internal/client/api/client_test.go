package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidylist/tidylist/internal/models"
	"go.uber.org/zap"
)

// staticToken is a TokenSource with a fixed credential.
type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", staticToken(token), zap.NewNop()), srv
}

func TestBearerHeaderAttached(t *testing.T) {
	var gotAuth, gotContentType string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"data":[],"message":"ok"}`))
	}, "tok-1")

	_, err := client.GetTodos(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	// GET carries no body, so no JSON content type either.
	assert.Empty(t, gotContentType)
}

func TestNoBearerHeaderWithoutToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":[],"message":"ok"}`))
	}, "")

	_, err := client.GetTodos(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail field wins", 400, `{"detail":"bad input","message":"other"}`, "bad input"},
		{"message fallback", 400, `{"message":"custom failure"}`, "custom failure"},
		{"unparseable body", 500, `<html>boom</html>`, "HTTP error! status: 500"},
		{"empty body", 404, ``, "HTTP error! status: 404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, "tok")

			_, err := client.GetTodos(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestUnauthorizedFiresCallback(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
	}, "stale")

	fired := false
	client.SetUnauthorizedHandler(func() { fired = true })

	_, err := client.GetTodos(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Not authenticated", err.Error())
	assert.True(t, fired, "unauthorized callback should fire on 401")
}

func TestUpdateTodoSendsPartialPatch(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		_, _ = w.Write([]byte(`{"data":{"id":"t1","title":"A","completed":true},"message":"ok"}`))
	}, "tok")

	completed := true
	todo, err := client.UpdateTodo(context.Background(), "t1", models.UpdateTodoRequest{Completed: &completed})
	require.NoError(t, err)
	assert.True(t, todo.Completed)

	assert.Contains(t, gotBody, "completed")
	assert.NotContains(t, gotBody, "title", "omitted fields must not be sent")
}

// pngPayload builds a blob DetectContentType reports as image/png.
func pngPayload(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte("\x89PNG\r\n\x1a\n"))
	return data
}

func TestUpdateProfilePicture_RejectsOversizedBeforeNetwork(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("oversized upload must not reach the network")
	}, "tok")

	_, err := client.UpdateProfilePicture(context.Background(), "big.png", pngPayload(6*1024*1024))
	require.ErrorIs(t, err, ErrFileTooLarge)
	assert.Equal(t, "File size exceeds 5MB limit", err.Error())
}

func TestUpdateProfilePicture_RejectsNonImageBeforeNetwork(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("non-image upload must not reach the network")
	}, "tok")

	_, err := client.UpdateProfilePicture(context.Background(), "notes.txt", []byte("plain text, not an image"))
	require.ErrorIs(t, err, ErrNotAnImage)
}

func TestUpdateProfilePicture_UploadsMultipart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10*1024*1024))
		file, header, err := r.FormFile("profile_picture")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "avatar.png", header.Filename)
		_, _ = w.Write([]byte(`{"data":{"id":"1","name":"A","email":"a@x","profile_picture":"stored.png"},"message":"ok"}`))
	}, "tok")

	user, err := client.UpdateProfilePicture(context.Background(), "avatar.png", pngPayload(128))
	require.NoError(t, err)
	assert.Equal(t, "stored.png", user.ProfilePicture)
}

func TestProfilePictureURL(t *testing.T) {
	client := New("http://localhost:8001/api/v1", staticToken(""), zap.NewNop())
	assert.Equal(t,
		"http://localhost:8001/api/user_images/pic.png",
		client.ProfilePictureURL("pic.png"),
	)
}

func TestProcessMessage_NullConversationIDOnFirstExchange(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/process_message", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		_, _ = w.Write([]byte(`{"success":true,"data":{"response":"hi","conversation_id":"c1"},"message":"ok"}`))
	}, "tok")

	reply, err := client.ProcessMessage(context.Background(), "hello", "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "c1", reply.ConversationID)
	assert.Nil(t, gotBody["conversation_id"], "absent id must be sent as null")

	_, err = client.ProcessMessage(context.Background(), "again", "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", gotBody["conversation_id"])
}

func TestProcessMessage_SuccessFalse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"data":{},"message":"agent unavailable"}`))
	}, "tok")

	_, err := client.ProcessMessage(context.Background(), "hello", "u1", "")
	require.Error(t, err)
	assert.Equal(t, "agent unavailable", err.Error())
}

func TestInitConversation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/init_conversation", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{"conversation_id":"c9"},"message":"ok"}`))
	}, "tok")

	id, err := client.InitConversation(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "c9", id)
}
