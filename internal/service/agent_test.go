package service

import (
	"context"
	"strings"
	"testing"

	"github.com/tidylist/tidylist/internal/repository"
)

func newAgent() (*AgentService, *TodoService) {
	todos := NewTodoService(repository.NewMemoryTodoRepository())
	return NewAgentService(todos), todos
}

func TestProcessMessageAddTask(t *testing.T) {
	agent, todos := newAgent()

	reply, err := agent.ProcessMessage(context.Background(), "u1", "Add a task to buy groceries", "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if reply.ConversationID == "" {
		t.Error("expected a conversation id to be created")
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Name != "add_task" {
		t.Fatalf("tool calls = %+v, want one add_task", reply.ToolCalls)
	}
	if got := reply.ToolCalls[0].Arguments["title"]; got != "buy groceries" {
		t.Errorf("title argument = %v, want buy groceries", got)
	}

	list, err := todos.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Title != "buy groceries" {
		t.Errorf("todos = %+v, want one 'buy groceries'", list)
	}
}

func TestProcessMessageKeepsConversationID(t *testing.T) {
	agent, _ := newAgent()

	reply, err := agent.ProcessMessage(context.Background(), "u1", "list my tasks", "conv-42")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if reply.ConversationID != "conv-42" {
		t.Errorf("conversation id = %q, want conv-42", reply.ConversationID)
	}
}

func TestProcessMessageListTasks(t *testing.T) {
	agent, todos := newAgent()
	ctx := context.Background()

	reply, err := agent.ProcessMessage(ctx, "u1", "list my tasks", "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if reply.Response != "You have no tasks yet." {
		t.Errorf("response = %q", reply.Response)
	}

	if _, err := todos.Create(ctx, "u1", "water plants"); err != nil {
		t.Fatalf("create: %v", err)
	}
	reply, err = agent.ProcessMessage(ctx, "u1", "show my tasks", "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(reply.Response, "water plants (pending)") {
		t.Errorf("response = %q, want it to mention 'water plants (pending)'", reply.Response)
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Name != "list_tasks" {
		t.Errorf("tool calls = %+v, want one list_tasks", reply.ToolCalls)
	}
}

func TestProcessMessageCompleteTask(t *testing.T) {
	agent, todos := newAgent()
	ctx := context.Background()
	if _, err := todos.Create(ctx, "u1", "Buy Groceries"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Matching is a case-insensitive substring match on the title.
	reply, err := agent.ProcessMessage(ctx, "u1", "complete groceries", "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Name != "complete_task" {
		t.Fatalf("tool calls = %+v, want one complete_task", reply.ToolCalls)
	}

	list, err := todos.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !list[0].Completed {
		t.Error("todo must be marked completed")
	}
}

func TestProcessMessageCompleteUnknownTask(t *testing.T) {
	agent, _ := newAgent()

	reply, err := agent.ProcessMessage(context.Background(), "u1", "complete laundry", "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(reply.ToolCalls) != 0 {
		t.Errorf("tool calls = %+v, want none", reply.ToolCalls)
	}
	if !strings.Contains(reply.Response, "couldn't find") {
		t.Errorf("response = %q", reply.Response)
	}
}

func TestProcessMessageDeleteTask(t *testing.T) {
	agent, todos := newAgent()
	ctx := context.Background()
	created, err := todos.Create(ctx, "u1", "old chore")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reply, err := agent.ProcessMessage(ctx, "u1", "delete old chore", "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(reply.ToolCalls) != 1 || reply.ToolCalls[0].Name != "delete_task" {
		t.Fatalf("tool calls = %+v, want one delete_task", reply.ToolCalls)
	}
	if got := reply.ToolCalls[0].Arguments["task_id"]; got != created.ID {
		t.Errorf("task_id argument = %v, want %q", got, created.ID)
	}

	list, err := todos.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("todos = %+v, want empty", list)
	}
}

func TestProcessMessageFallsBackToHelp(t *testing.T) {
	agent, _ := newAgent()

	reply, err := agent.ProcessMessage(context.Background(), "u1", "what's the weather like", "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if reply.Response != helpReply {
		t.Errorf("response = %q, want the help text", reply.Response)
	}
	if len(reply.ToolCalls) != 0 {
		t.Errorf("tool calls = %+v, want none", reply.ToolCalls)
	}
}

func TestTaskArgument(t *testing.T) {
	tests := []struct {
		text  string
		verbs []string
		want  string
	}{
		{"Add a task to buy groceries", []string{"add"}, "buy groceries"},
		{"add buy groceries", []string{"add"}, "buy groceries"},
		{"add task water plants", []string{"add"}, "water plants"},
		{"complete the task laundry", []string{"complete", "finish"}, "laundry"},
		{"finish laundry", []string{"complete", "finish"}, "laundry"},
		{"add", []string{"add"}, ""},
	}

	for _, tt := range tests {
		if got := taskArgument(tt.text, tt.verbs...); got != tt.want {
			t.Errorf("taskArgument(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
