// Package chat owns the AI assistant conversation: the ordered message
// history, the conversation id, the in-flight send guard, and the
// per-user durable persistence of the history.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidylist/tidylist/internal/client/storage"
	"github.com/tidylist/tidylist/internal/models"
	"go.uber.org/zap"
)

// Send rejections. None of these issues a network call or appends a message.
var (
	// ErrEmptyMessage rejects empty or whitespace-only input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy rejects a send while another one is in flight.
	ErrBusy = errors.New("a message is already being sent")
	// ErrNotAuthenticated rejects sends without an authenticated user.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// errorReply is appended as a synthetic assistant message when a send fails.
const errorReply = "Sorry, I encountered an error processing your request. Please try again."

// Agent is the slice of the API client the manager needs.
type Agent interface {
	ProcessMessage(ctx context.Context, message, userID, conversationID string) (models.ChatReply, error)
	InitConversation(ctx context.Context, userID string) (string, error)
}

// UserSource reports the currently authenticated user, or nil.
// The session store implements it.
type UserSource interface {
	User() *models.User
}

// Manager is the conversation state machine: idle → sending → idle.
// Sends are serialized by the in-flight guard; a second Send while one is
// pending returns ErrBusy rather than queueing.
type Manager struct {
	agent   Agent
	users   UserSource
	storage *storage.Store
	log     *zap.Logger

	// Mutable state below, guarded by the storage-free fast-path methods.
	messages       []models.Message
	conversationID string
	sending        bool
	lastError      string

	guard chan struct{} // capacity 1, held while a send is in flight
}

// NewManager creates a conversation manager. History is not loaded until
// Load is called with an authenticated user present.
func NewManager(agent Agent, users UserSource, st *storage.Store, log *zap.Logger) *Manager {
	return &Manager{
		agent:   agent,
		users:   users,
		storage: st,
		log:     log,
		guard:   make(chan struct{}, 1),
	}
}

// Load rehydrates the current user's history from durable storage,
// parsing the serialized RFC 3339 timestamps back into time values.
// Without a user, or without stored history, the manager starts empty.
// A corrupt entry is logged and skipped, never a crash.
func (m *Manager) Load() {
	user := m.users.User()
	if user == nil {
		return
	}

	raw, ok := m.storage.Get(storage.ChatHistoryKey(user.ID))
	if !ok {
		return
	}

	var messages []models.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		m.log.Warn("stored chat history is malformed, starting empty", zap.Error(err))
		return
	}
	m.messages = messages
}

// Init optionally requests a fresh conversation id before the first
// message. Failure is tolerated: the conversation proceeds with an absent
// id and the first real send creates it server-side.
func (m *Manager) Init(ctx context.Context, userID string) {
	id, err := m.agent.InitConversation(ctx, userID)
	if err != nil {
		m.log.Warn("conversation init failed, deferring to first message", zap.Error(err))
		return
	}
	m.conversationID = id
}

// Send processes one user message. The user's message is appended
// optimistically and never retracted; on success the assistant reply is
// appended, on failure a fixed synthetic assistant error message is. In
// both outcomes the message count grows by exactly two and the manager
// returns to idle.
func (m *Manager) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	user := m.users.User()
	if user == nil {
		return ErrNotAuthenticated
	}

	select {
	case m.guard <- struct{}{}:
	default:
		return ErrBusy
	}
	defer func() { <-m.guard }()

	m.sending = true
	m.lastError = ""
	defer func() { m.sending = false }()

	m.append(models.Message{
		ID:        uuid.NewString(),
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}, user.ID)

	reply, err := m.agent.ProcessMessage(ctx, text, user.ID, m.conversationID)
	if err != nil {
		m.lastError = err.Error()
		m.log.Warn("chat send failed", zap.Error(err))
		m.append(models.Message{
			ID:        uuid.NewString(),
			Role:      models.RoleAssistant,
			Content:   errorReply,
			Timestamp: time.Now(),
		}, user.ID)
		return err
	}

	// Adopt the conversation id from the first successful exchange only;
	// a later reply never overwrites it.
	if m.conversationID == "" && reply.ConversationID != "" {
		m.conversationID = reply.ConversationID
	}

	m.append(models.Message{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   reply.Response,
		Timestamp: replyTime(reply.Timestamp),
		ToolCalls: reply.ToolCalls,
	}, user.ID)
	return nil
}

// replyTime parses the server's reply timestamp, falling back to now.
func replyTime(stamp string) time.Time {
	if t, err := time.Parse(time.RFC3339, stamp); err == nil {
		return t
	}
	return time.Now()
}

// append adds a message and writes the full history through to the
// per-user durable storage entry.
func (m *Manager) append(msg models.Message, userID string) {
	m.messages = append(m.messages, msg)
	m.persist(userID)
}

// persist serializes the full message sequence. History is unbounded for
// the lifetime of the stored key.
func (m *Manager) persist(userID string) {
	raw, err := json.Marshal(m.messages)
	if err != nil {
		m.log.Error("failed to serialize chat history", zap.Error(err))
		return
	}
	if err := m.storage.Set(storage.ChatHistoryKey(userID), string(raw)); err != nil {
		m.log.Error("failed to persist chat history", zap.Error(err))
	}
}

// Clear empties the message sequence, resets the conversation id, and
// removes the current user's durable history entry.
func (m *Manager) Clear() {
	m.messages = nil
	m.conversationID = ""
	m.lastError = ""

	if user := m.users.User(); user != nil {
		_ = m.storage.Remove(storage.ChatHistoryKey(user.ID))
	}
}

// Messages returns a copy of the ordered message history.
func (m *Manager) Messages() []models.Message {
	out := make([]models.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// ConversationID returns the adopted conversation id, or "" before the
// first successful exchange.
func (m *Manager) ConversationID() string {
	return m.conversationID
}

// Sending reports whether a send is currently in flight.
func (m *Manager) Sending() bool {
	return m.sending
}

// LastError returns the displayable message of the most recent failed
// send, or "" after a success.
func (m *Manager) LastError() string {
	return m.lastError
}
