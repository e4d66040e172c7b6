// Package main runs the interactive TidyList client: an authenticated
// todo list with an AI chat assistant, talking to the backend API over
// HTTP and mirroring session and chat state to local durable storage.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidylist/tidylist/internal/client/api"
	"github.com/tidylist/tidylist/internal/client/chat"
	"github.com/tidylist/tidylist/internal/client/session"
	"github.com/tidylist/tidylist/internal/client/storage"
	"github.com/tidylist/tidylist/internal/client/todo"
	"github.com/tidylist/tidylist/internal/config"
	"github.com/tidylist/tidylist/internal/logger"
	"github.com/tidylist/tidylist/internal/models"
	"go.uber.org/zap"
)

// app bundles the client components the REPL dispatches to.
type app struct {
	storage *storage.Store
	session *session.Store
	api     *api.Client
	todos   *todo.List
	chat    *chat.Manager
}

// repl runs the interactive shell loop, accepting commands to manage
// todos and talk to the assistant.
func repl(a *app) {
	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Print("tidylist> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			printHelp()
		case "register":
			if len(args) < 4 {
				fmt.Println("Usage: register <name> <email> <password>")
				continue
			}
			if err := a.session.Register(ctx, a.api, args[1], args[2], args[3]); err != nil {
				fmt.Println("Registration failed:", err)
				continue
			}
			a.chat.Load()
			fmt.Println("Registered and logged in as", args[2])
		case "login":
			if len(args) < 3 {
				fmt.Println("Usage: login <email> <password>")
				continue
			}
			if err := a.session.Authenticate(ctx, a.api, args[1], args[2]); err != nil {
				fmt.Println("Login failed:", err)
				continue
			}
			a.chat.Load()
			fmt.Println("Logged in as", args[1])
		case "logout":
			a.session.Logout()
			fmt.Println("Logged out")
		case "whoami":
			if user := a.session.User(); user != nil {
				fmt.Printf("%s <%s>\n", user.Name, user.Email)
			} else {
				fmt.Println("Not logged in")
			}
		case "list":
			filter := todo.FilterAll
			if len(args) > 1 {
				filter = todo.Filter(args[1])
			}
			if err := a.todos.Load(ctx); err != nil {
				fmt.Println("Error:", err)
				continue
			}
			printTodos(a.todos.Filter(filter))
		case "add":
			if len(args) < 2 {
				fmt.Println("Usage: add <title>")
				continue
			}
			created, err := a.todos.Add(ctx, strings.Join(args[1:], " "))
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Println("Added", created.ID)
		case "done":
			if len(args) < 2 {
				fmt.Println("Usage: done <id>")
				continue
			}
			updated, err := a.todos.Toggle(ctx, args[1])
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Printf("%s completed=%v\n", updated.Title, updated.Completed)
		case "rename":
			if len(args) < 3 {
				fmt.Println("Usage: rename <id> <title>")
				continue
			}
			if _, err := a.todos.Rename(ctx, args[1], strings.Join(args[2:], " ")); err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Println("Renamed")
		case "rm":
			if len(args) < 2 {
				fmt.Println("Usage: rm <id>")
				continue
			}
			if err := a.todos.Remove(ctx, args[1]); err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Println("Deleted")
		case "chat":
			if len(args) < 2 {
				fmt.Println("Usage: chat <message>")
				continue
			}
			sendChat(ctx, a, strings.Join(args[1:], " "))
		case "history":
			for _, msg := range a.chat.Messages() {
				printMessage(msg)
			}
		case "chat-clear":
			a.chat.Clear()
			fmt.Println("Chat history cleared")
		case "profile":
			if len(args) < 3 {
				fmt.Println("Usage: profile <name> <email>")
				continue
			}
			user, err := a.api.UpdateProfile(ctx, args[1], args[2])
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			// The backend returns no new token; keep the current one.
			a.session.Login(a.session.Token(), user)
			fmt.Println("Profile updated successfully!")
		case "picture":
			if len(args) < 2 {
				fmt.Println("Usage: picture <path>")
				continue
			}
			uploadPicture(ctx, a, args[1])
		case "theme":
			if len(args) < 2 {
				if v, ok := a.storage.Get(storage.KeyTheme); ok {
					fmt.Println("Theme:", v)
				} else {
					fmt.Println("Theme not set")
				}
				continue
			}
			_ = a.storage.Set(storage.KeyTheme, args[1])
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func sendChat(ctx context.Context, a *app, text string) {
	// Best-effort conversation warm-up before the first message.
	if a.chat.ConversationID() == "" && len(a.chat.Messages()) == 0 {
		if user := a.session.User(); user != nil {
			a.chat.Init(ctx, user.ID)
		}
	}

	err := a.chat.Send(ctx, text)
	switch {
	case errors.Is(err, chat.ErrNotAuthenticated):
		fmt.Println("Please log in first")
		return
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrBusy):
		fmt.Println("Error:", err)
		return
	}
	if err != nil {
		fmt.Println("Error:", a.chat.LastError())
	}

	messages := a.chat.Messages()
	if len(messages) > 0 {
		printMessage(messages[len(messages)-1])
	}
}

func uploadPicture(ctx context.Context, a *app, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	user, err := a.api.UpdateProfilePicture(ctx, path, data)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	a.session.Login(a.session.Token(), user)
	fmt.Println("Profile picture updated successfully!")
	fmt.Println("URL:", a.api.ProfilePictureURL(user.ProfilePicture))
}

func printTodos(todos []models.Todo) {
	if len(todos) == 0 {
		fmt.Println("No todos")
		return
	}
	for _, t := range todos {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Printf("[%s] %s  %s\n", mark, t.ID, t.Title)
	}
}

func printMessage(msg models.Message) {
	who := "You"
	if msg.Role == models.RoleAssistant {
		who = "Assistant"
	}
	fmt.Printf("%s [%s]: %s\n", who, msg.Timestamp.Format("15:04"), msg.Content)
	for _, call := range msg.ToolCalls {
		fmt.Printf("  tool: %s %v\n", call.Name, call.Arguments)
	}
}

func printHelp() {
	fmt.Println(`Available commands:
  register <name> <email> <password>
  login <email> <password> | logout | whoami
  list [all|active|completed] | add <title> | done <id> | rename <id> <title> | rm <id>
  chat <message> | history | chat-clear
  profile <name> <email> | picture <path> | theme [value]
  help | exit`)
}

// main wires storage, session, API client and the two view-models, then
// hands control to the shell.
func main() {
	options := config.Parse()

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Warn"); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	store, err := storage.Open(options.StorageDir)
	if err != nil {
		zapLogger.Fatal("failed to open local storage", zap.Error(err))
	}

	sess := session.NewStore(store, zapLogger)
	sess.Hydrate()

	client := api.New(options.BaseURL, sess, zapLogger)
	// A 401 from any call invalidates the session, storage included.
	client.SetUnauthorizedHandler(sess.HandleUnauthorized)

	manager := chat.NewManager(client, sess, store, zapLogger)
	manager.Load()

	a := &app{
		storage: store,
		session: sess,
		api:     client,
		todos:   todo.NewList(client, zapLogger),
		chat:    manager,
	}

	if user := sess.User(); user != nil {
		fmt.Printf("Welcome back, %s. Type 'help' for commands.\n", user.Name)
	} else {
		fmt.Println("Welcome to TidyList. Type 'help' for commands.")
	}
	repl(a)
}
