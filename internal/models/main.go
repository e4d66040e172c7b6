// Package models defines the core data structures shared between the
// client components and the dev server: users, todos, chat messages
// and the JSON envelopes the backend speaks.
package models

import "time"

// User represents an authenticated application user.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Name is the display name chosen by the user.
	Name string `json:"name"`
	// Email is the unique login email of the user.
	Email string `json:"email"`
	// ProfilePicture is the stored filename of the user's avatar, if any.
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Todo is a single task owned by a user. It is mutated only through the
// API client; the view-model mirrors the server's returned representation.
type Todo struct {
	// ID is the server-assigned unique identifier.
	ID string `json:"id"`
	// Title is the non-empty task title.
	Title string `json:"title"`
	// Description holds optional free-form detail.
	Description string `json:"description,omitempty"`
	// Completed indicates whether the task is done.
	Completed bool `json:"completed"`
	// CreatedAt is the server-side creation timestamp.
	CreatedAt time.Time `json:"created_at,omitempty"`
	// UpdatedAt is the server-side last-modification timestamp.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	// OwnerID is the id of the owning user.
	OwnerID string `json:"owner_id,omitempty"`
}

// CreateTodoRequest is the payload for creating a todo.
type CreateTodoRequest struct {
	Title string `json:"title"`
}

// UpdateTodoRequest is a partial patch: only non-nil fields are sent.
type UpdateTodoRequest struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Role identifies the sender of a chat message.
type Role string

const (
	// RoleUser marks a message written by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the AI assistant.
	RoleAssistant Role = "assistant"
)

// ToolCall records an automated action the assistant performed,
// attached to an assistant message for display.
type ToolCall struct {
	// Name is the tool identifier, e.g. "add_task".
	Name string `json:"name"`
	// Arguments holds the tool's input values.
	Arguments map[string]any `json:"arguments"`
}

// Message is a single chat message held locally by the conversation
// manager. IDs are client-generated and unique within a conversation.
// Timestamps serialize as RFC 3339 strings.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ChatReply is the assistant's answer to one processed message.
type ChatReply struct {
	// Response is the assistant's reply text.
	Response string `json:"response"`
	// ConversationID identifies the server-tracked conversation.
	ConversationID string `json:"conversation_id"`
	// ToolCalls lists the tools the assistant executed, in order.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// Timestamp is the server-side reply time, RFC 3339.
	Timestamp string `json:"timestamp,omitempty"`
}

// AuthData is the payload returned by registration and login.
type AuthData struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        User   `json:"user"`
}
