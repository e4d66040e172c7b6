// Package api implements the typed HTTP client for the backend. It is the
// only component that touches the network: it attaches the bearer
// credential, normalizes error shapes, and signals unauthorized responses
// so the session store can react.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/tidylist/tidylist/internal/models"
	"go.uber.org/zap"
)

// Client-side upload validation failures. These never reach the network.
var (
	// ErrFileTooLarge rejects profile pictures over the 5 MB ceiling.
	ErrFileTooLarge = errors.New("File size exceeds 5MB limit")
	// ErrNotAnImage rejects payloads that are not image MIME types.
	ErrNotAnImage = errors.New("Please select a valid image file (JPEG, PNG, GIF)")
)

// maxPictureSize is the upload ceiling for profile pictures.
const maxPictureSize = 5 * 1024 * 1024

// TokenSource supplies the current bearer credential at call time.
// An empty string means no credential is attached.
type TokenSource interface {
	Token() string
}

// APIError is a normalized backend failure: the HTTP status plus the
// human-readable message extracted from the response body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client wraps all HTTP calls to the backend. It holds no request state
// beyond reading the credential from its TokenSource per call.
type Client struct {
	baseURL        string
	http           *http.Client
	tokens         TokenSource
	onUnauthorized func()
	log            *zap.Logger
}

// New creates a Client for the given API base URL (e.g.
// "http://localhost:8001/api/v1"). tokens may not be nil.
func New(baseURL string, tokens TokenSource, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
		log:     log,
	}
}

// SetUnauthorizedHandler registers the callback invoked when any call
// returns 401, before the call fails. The session store subscribes here.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.onUnauthorized = fn
}

// chatBase strips the versioned API suffix: the AI endpoints live at the
// server root, not under /api/v1.
func (c *Client) chatBase() string {
	return strings.TrimSuffix(c.baseURL, "/api/v1")
}

// envelope is the standard {data, message} response wrapper.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// errorBody covers both the framework error shape and the custom one.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// newRequest builds a request with the bearer credential attached when
// one is present.
func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do executes the request and normalizes the outcome. On non-2xx it
// extracts a message from the body ("detail", then "message") and falls
// back to a generic message; on 401 it additionally fires the
// unauthorized callback before failing.
func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.normalizeError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &env, nil
}

func (c *Client) normalizeError(resp *http.Response) error {
	message := fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)

	var body errorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Detail != "" {
			message = body.Detail
		} else if body.Message != "" {
			message = body.Message
		}
	}

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	c.log.Debug("backend call failed",
		zap.Int("status", resp.StatusCode),
		zap.String("message", message),
	)
	return &APIError{Status: resp.StatusCode, Message: message}
}

// doJSON marshals body (when non-nil) and performs a JSON API call.
func (c *Client) doJSON(ctx context.Context, method, url string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req)
}

// GetTodos lists the authenticated user's todos.
func (c *Client) GetTodos(ctx context.Context) ([]models.Todo, error) {
	env, err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/todos", nil)
	if err != nil {
		return nil, err
	}
	var todos []models.Todo
	if err := json.Unmarshal(env.Data, &todos); err != nil {
		return nil, fmt.Errorf("decoding todos: %w", err)
	}
	return todos, nil
}

// CreateTodo creates a todo and returns the server's representation.
func (c *Client) CreateTodo(ctx context.Context, req models.CreateTodoRequest) (models.Todo, error) {
	env, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/todos", req)
	if err != nil {
		return models.Todo{}, err
	}
	var todo models.Todo
	if err := json.Unmarshal(env.Data, &todo); err != nil {
		return models.Todo{}, fmt.Errorf("decoding todo: %w", err)
	}
	return todo, nil
}

// UpdateTodo applies a partial patch: only the request's non-nil fields
// are sent. Returns the server's updated representation.
func (c *Client) UpdateTodo(ctx context.Context, id string, req models.UpdateTodoRequest) (models.Todo, error) {
	env, err := c.doJSON(ctx, http.MethodPut, c.baseURL+"/todos/"+id, req)
	if err != nil {
		return models.Todo{}, err
	}
	var todo models.Todo
	if err := json.Unmarshal(env.Data, &todo); err != nil {
		return models.Todo{}, fmt.Errorf("decoding todo: %w", err)
	}
	return todo, nil
}

// DeleteTodo removes a todo by id.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, c.baseURL+"/todos/"+id, nil)
	return err
}

// registerRequest is the registration payload.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns the credential and profile.
func (c *Client) Register(ctx context.Context, name, email, password string) (models.AuthData, error) {
	env, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/auth/register", registerRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return models.AuthData{}, err
	}
	var data models.AuthData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return models.AuthData{}, fmt.Errorf("decoding registration response: %w", err)
	}
	return data, nil
}

// loginRequest is the login payload.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for the credential and profile.
func (c *Client) Login(ctx context.Context, email, password string) (models.AuthData, error) {
	env, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/auth/login", loginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return models.AuthData{}, err
	}
	var data models.AuthData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return models.AuthData{}, fmt.Errorf("decoding login response: %w", err)
	}
	return data, nil
}

// doMultipart performs a multipart form call. Content-Type is left to the
// multipart writer; no JSON header is attached.
func (c *Client) doMultipart(ctx context.Context, url string, build func(*multipart.Writer) error) (*envelope, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := build(w); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

// UpdateProfile updates the user's name and email via a multipart form.
// The backend does not return a new credential; the caller keeps the
// existing one and adopts the returned profile.
func (c *Client) UpdateProfile(ctx context.Context, name, email string) (models.User, error) {
	env, err := c.doMultipart(ctx, c.baseURL+"/auth/update_profile", func(w *multipart.Writer) error {
		if err := w.WriteField("name", name); err != nil {
			return err
		}
		return w.WriteField("email", email)
	})
	if err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := json.Unmarshal(env.Data, &user); err != nil {
		return models.User{}, fmt.Errorf("decoding profile: %w", err)
	}
	return user, nil
}

// UpdateProfilePicture uploads a new avatar. The payload is validated
// client-side — image MIME type and the 5 MB ceiling — before any network
// call is made.
func (c *Client) UpdateProfilePicture(ctx context.Context, filename string, data []byte) (models.User, error) {
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return models.User{}, ErrNotAnImage
	}
	if len(data) > maxPictureSize {
		return models.User{}, ErrFileTooLarge
	}

	env, err := c.doMultipart(ctx, c.baseURL+"/auth/update_profile_picture", func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("profile_picture", filename)
		if err != nil {
			return err
		}
		_, err = part.Write(data)
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := json.Unmarshal(env.Data, &user); err != nil {
		return models.User{}, fmt.Errorf("decoding profile: %w", err)
	}
	return user, nil
}

// ProfilePictureURL computes the displayable URL for a stored profile
// picture reference. Images are served from the server root, outside the
// versioned API prefix.
func (c *Client) ProfilePictureURL(filename string) string {
	return c.chatBase() + "/api/user_images/" + filename
}

// chatEnvelope is the {success, data, message} wrapper the AI endpoints use.
type chatEnvelope struct {
	Success bool             `json:"success"`
	Data    models.ChatReply `json:"data"`
	Message string           `json:"message"`
}

// processMessageRequest is the chat payload. A nil ConversationID asks the
// backend to create the conversation.
type processMessageRequest struct {
	Message        string  `json:"message"`
	UserID         string  `json:"user_id"`
	ConversationID *string `json:"conversation_id"`
}

// ProcessMessage sends one chat message to the AI agent. conversationID
// may be empty for the first exchange; the reply carries the id to adopt.
func (c *Client) ProcessMessage(ctx context.Context, message, userID, conversationID string) (models.ChatReply, error) {
	body := processMessageRequest{Message: message, UserID: userID}
	if conversationID != "" {
		body.ConversationID = &conversationID
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return models.ChatReply{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.chatBase()+"/api/ai/process_message", bytes.NewReader(raw))
	if err != nil {
		return models.ChatReply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.ChatReply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.ChatReply{}, c.normalizeError(resp)
	}

	var env chatEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return models.ChatReply{}, fmt.Errorf("decoding chat response: %w", err)
	}
	if !env.Success {
		message := env.Message
		if message == "" {
			message = "Failed to get response from AI agent"
		}
		return models.ChatReply{}, &APIError{Status: resp.StatusCode, Message: message}
	}
	return env.Data, nil
}

// initConversationRequest is the conversation-initialization payload.
type initConversationRequest struct {
	UserID string `json:"user_id"`
}

// InitConversation asks the backend for a fresh conversation id before the
// first message. Failure is non-fatal for the caller: the first real
// message creates the conversation server-side instead.
func (c *Client) InitConversation(ctx context.Context, userID string) (string, error) {
	raw, err := json.Marshal(initConversationRequest{UserID: userID})
	if err != nil {
		return "", err
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.chatBase()+"/api/ai/init_conversation", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.normalizeError(resp)
	}

	var env chatEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("decoding init response: %w", err)
	}
	if !env.Success {
		message := env.Message
		if message == "" {
			message = "Failed to initialize conversation"
		}
		return "", &APIError{Status: resp.StatusCode, Message: message}
	}
	return env.Data.ConversationID, nil
}
