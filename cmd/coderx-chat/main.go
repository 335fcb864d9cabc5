// Command coderx-chat is a terminal client for a running coderx relay.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coderx/internal/storage"

	"github.com/chzyer/readline"
)

func main() {
	var (
		serverURL string
		apiKey    string
		model     string
		sessionID string
		timeout   time.Duration
	)
	flag.StringVar(&serverURL, "server", "http://127.0.0.1:5000", "Relay base URL")
	flag.StringVar(&apiKey, "api-key", os.Getenv("CODERX_API_KEY"), "Upstream API key (default $CODERX_API_KEY)")
	flag.StringVar(&model, "model", "", "Model override")
	flag.StringVar(&sessionID, "session", "", "Session id (default: a fresh one)")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Request timeout")
	flag.Parse()

	if strings.TrimSpace(apiKey) == "" {
		fmt.Fprintln(os.Stderr, "an API key is required: pass -api-key or set CODERX_API_KEY")
		os.Exit(1)
	}
	if strings.TrimSpace(sessionID) == "" {
		sessionID = storage.NewSessionID()
	}

	historyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, ".coderx", "chat.history")
	}
	input, inputErr := newLineInput(historyPath)
	if inputErr != nil {
		fmt.Fprintf(os.Stderr, "line editor unavailable, fallback to basic input: %v\n", inputErr)
	}
	defer input.Close()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve cwd failed: %v\n", err)
		os.Exit(1)
	}
	files, err := newAttacher(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init file attach failed: %v\n", err)
		os.Exit(1)
	}

	client := newRelayClient(serverURL, timeout)
	st := &chatState{SessionID: sessionID}

	fmt.Printf("coderx-chat connected to %s\n", serverURL)
	fmt.Printf("session: %s\n", st.SessionID)
	printREPLCommands(os.Stdout)

	for {
		prompt := "> "
		if st.FilePath != "" {
			prompt = fmt.Sprintf("[%s] > ", filepath.Base(st.FilePath))
		}
		line, err := input.ReadLine(prompt)
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				fmt.Fprintln(os.Stdout)
				continue
			case errors.Is(err, io.EOF):
				fmt.Fprintln(os.Stderr, "\nexit")
				return
			default:
				fmt.Fprintf(os.Stderr, "read input failed: %v\n", err)
				return
			}
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}

		if res := handleCommand(text, st, files.Read); res.handled {
			if res.exit {
				return
			}
			if res.message != "" {
				fmt.Println(mutedStyle.Render(res.message))
			}
			continue
		}

		resp, err := client.Chat(context.Background(), chatRequest{
			Message:     text,
			APIKey:      apiKey,
			Model:       model,
			FileContent: st.FileContent,
			SessionID:   st.SessionID,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
			continue
		}
		fmt.Println(renderMarkdown(resp.Reply, 100))
		fmt.Println(renderTodos(resp.Todos))
	}
}
