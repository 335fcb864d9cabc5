package main

import (
	"fmt"
	"io"
	"strings"
)

var replCommands = []string{
	"/file <path>   attach a file to the following messages",
	"/clear         detach the file",
	"/session [id]  show or switch the session",
	"/help          show this list",
	"/quit          exit",
}

// chatState is what slash commands can change between requests.
type chatState struct {
	SessionID   string
	FilePath    string
	FileContent string
}

type commandResult struct {
	handled bool
	exit    bool
	message string
}

// handleCommand applies a slash command. readFile is swappable for tests.
func handleCommand(input string, st *chatState, readFile func(string) ([]byte, error)) commandResult {
	fields := strings.Fields(input)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return commandResult{}
	}
	arg := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

	switch fields[0] {
	case "/quit", "/exit":
		return commandResult{handled: true, exit: true}
	case "/help":
		return commandResult{handled: true, message: strings.Join(replCommands, "\n")}
	case "/clear":
		st.FilePath, st.FileContent = "", ""
		return commandResult{handled: true, message: "file detached"}
	case "/session":
		if arg == "" {
			return commandResult{handled: true, message: "session: " + st.SessionID}
		}
		st.SessionID = arg
		return commandResult{handled: true, message: "switched to session " + arg}
	case "/file":
		if arg == "" {
			return commandResult{handled: true, message: "usage: /file <path>"}
		}
		data, err := readFile(arg)
		if err != nil {
			return commandResult{handled: true, message: fmt.Sprintf("read %s failed: %v", arg, err)}
		}
		st.FilePath, st.FileContent = arg, string(data)
		return commandResult{handled: true, message: fmt.Sprintf("attached %s (%d bytes)", arg, len(data))}
	default:
		return commandResult{}
	}
}

func printREPLCommands(out io.Writer) {
	fmt.Fprintln(out, "commands:")
	for _, cmd := range replCommands {
		fmt.Fprintf(out, "  %s\n", cmd)
	}
}
