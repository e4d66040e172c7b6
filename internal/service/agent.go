package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidylist/tidylist/internal/models"
)

// helpReply is returned when the agent cannot map the input to a task action.
const helpReply = "I can help you manage your tasks. Try: 'Add a task to buy groceries', 'List my tasks', 'Complete buy groceries', or 'Delete buy groceries'."

// AgentService is the dev server's stand-in for the AI assistant: a
// rule-based command parser that manipulates the user's todos and reports
// the tool calls it performed.
type AgentService struct {
	todos *TodoService
}

// NewAgentService constructs an AgentService over the given TodoService.
func NewAgentService(todos *TodoService) *AgentService {
	return &AgentService{todos: todos}
}

// InitConversation returns a fresh conversation id for the user.
func (s *AgentService) InitConversation(ctx context.Context, userID string) (string, error) {
	return uuid.NewString(), nil
}

// ProcessMessage interprets one user message, performs the matching task
// action, and returns the reply with its tool calls. An absent
// conversation id creates the conversation.
func (s *AgentService) ProcessMessage(ctx context.Context, userID, message, conversationID string) (models.ChatReply, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	reply := models.ChatReply{
		ConversationID: conversationID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}

	text := strings.TrimSpace(message)
	lower := strings.ToLower(text)

	switch {
	case strings.HasPrefix(lower, "add"):
		title := taskArgument(text, "add")
		if title == "" {
			reply.Response = "What should the task say? Try 'Add a task to buy groceries'."
			return reply, nil
		}
		todo, err := s.todos.Create(ctx, userID, title)
		if err != nil {
			return models.ChatReply{}, err
		}
		reply.Response = fmt.Sprintf("I've added %q to your list.", todo.Title)
		reply.ToolCalls = []models.ToolCall{{
			Name:      "add_task",
			Arguments: map[string]any{"title": todo.Title},
		}}

	case strings.HasPrefix(lower, "list") || strings.HasPrefix(lower, "show"):
		todos, err := s.todos.List(ctx, userID)
		if err != nil {
			return models.ChatReply{}, err
		}
		reply.Response = formatTaskList(todos)
		reply.ToolCalls = []models.ToolCall{{
			Name:      "list_tasks",
			Arguments: map[string]any{},
		}}

	case strings.HasPrefix(lower, "complete") || strings.HasPrefix(lower, "finish"):
		name := taskArgument(text, "complete", "finish")
		todo, ok, err := s.completeByName(ctx, userID, name)
		if err != nil {
			return models.ChatReply{}, err
		}
		if !ok {
			reply.Response = fmt.Sprintf("I couldn't find a task matching %q.", name)
			return reply, nil
		}
		reply.Response = fmt.Sprintf("Marked %q as completed.", todo.Title)
		reply.ToolCalls = []models.ToolCall{{
			Name:      "complete_task",
			Arguments: map[string]any{"task_name": todo.Title},
		}}

	case strings.HasPrefix(lower, "delete") || strings.HasPrefix(lower, "remove"):
		name := taskArgument(text, "delete", "remove")
		todo, ok, err := s.findByName(ctx, userID, name)
		if err != nil {
			return models.ChatReply{}, err
		}
		if !ok {
			reply.Response = fmt.Sprintf("I couldn't find a task matching %q.", name)
			return reply, nil
		}
		if err := s.todos.Delete(ctx, userID, todo.ID); err != nil {
			return models.ChatReply{}, err
		}
		reply.Response = fmt.Sprintf("Deleted %q from your list.", todo.Title)
		reply.ToolCalls = []models.ToolCall{{
			Name:      "delete_task",
			Arguments: map[string]any{"task_id": todo.ID},
		}}

	default:
		reply.Response = helpReply
	}

	return reply, nil
}

// taskArgument strips the verb and filler words ("a task to", "task",
// "my tasks") from the front of the message.
func taskArgument(text string, verbs ...string) string {
	lower := strings.ToLower(text)
	for _, v := range verbs {
		if strings.HasPrefix(lower, v) {
			text = strings.TrimSpace(text[len(v):])
			break
		}
	}
	for _, filler := range []string{"a task to ", "a task ", "task ", "the task "} {
		if strings.HasPrefix(strings.ToLower(text), filler) {
			text = strings.TrimSpace(text[len(filler):])
			break
		}
	}
	return text
}

// findByName locates the first of the user's todos whose title contains
// name, case-insensitively.
func (s *AgentService) findByName(ctx context.Context, userID, name string) (models.Todo, bool, error) {
	if name == "" {
		return models.Todo{}, false, nil
	}
	todos, err := s.todos.List(ctx, userID)
	if err != nil {
		return models.Todo{}, false, err
	}
	needle := strings.ToLower(name)
	for _, t := range todos {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			return t, true, nil
		}
	}
	return models.Todo{}, false, nil
}

func (s *AgentService) completeByName(ctx context.Context, userID, name string) (models.Todo, bool, error) {
	todo, ok, err := s.findByName(ctx, userID, name)
	if err != nil || !ok {
		return models.Todo{}, ok, err
	}
	completed := true
	updated, err := s.todos.Update(ctx, userID, todo.ID, models.UpdateTodoRequest{Completed: &completed})
	if err != nil {
		return models.Todo{}, false, err
	}
	return updated, true, nil
}

func formatTaskList(todos []models.Todo) string {
	if len(todos) == 0 {
		return "You have no tasks yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You have %d task(s):\n", len(todos))
	for i, t := range todos {
		status := "pending"
		if t.Completed {
			status = "completed"
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, t.Title, status)
	}
	return strings.TrimRight(b.String(), "\n")
}
