// Package prompt assembles the outbound message sequence for one exchange.
package prompt

import (
	"fmt"
	"strings"

	"coderx/internal/chat"
)

const (
	DefaultHistoryWindow    = 8
	DefaultFileContextLimit = 2000

	// NoTasksPlaceholder is rendered in place of an empty task list.
	NoTasksPlaceholder = "NO ACTIVE TASKS."
	// NoFileContext is rendered when the caller sent no file.
	NoFileContext = "None"
)

// SystemPersona is sent as the first message of every request. The TOOLS
// SYNTAX lines must stay byte-identical to the tags the directive package
// parses.
const SystemPersona = `YOU ARE 'CODER-X', A LEGENDARY SOFTWARE ARCHITECT AND SENIOR DEVELOPER.

YOUR CORE ALGORITHM (STRICTLY FOLLOW THIS FLOW):
1. **DECONSTRUCTION**: Break down the user's request into technical components.
2. **MEMORY CHECK**: Look at previous tasks/files.
3. **STRATEGY**:
   - If coding: Plan the file structure first.
   - If debugging: Analyze the error trace step-by-step.
4. **EXECUTION**: Write clean, modern, and optimized code.
5. **SELF-CORRECTION**: Before answering, mentally review your code for bugs.

OUTPUT FORMAT RULES:
- USE <PLAN> tags to show your thinking process (optional but recommended for complex tasks).
- ALWAYS wrap code in ` + "```language ... ```" + ` blocks.
- EXPLAIN logic in HINGLISH (Hindi + English Mix).
- ADD comments in the code explaining complex parts.

TOOLS SYNTAX:
- To add to-do list: [[ADD_TODO: task]]
- To complete task: [[DEL_TODO: task]]`

const instructionsTrailer = `INSTRUCTIONS FOR AI:
- Analyze the request deeply.
- If the user wants a full app, give separate code blocks for each file (HTML, CSS, JS, PY).
- Detect potential errors in user logic if any.
- Start working now.`

// Options 控制 prompt 组装的可调参数
// Options tunes prompt assembly. Zero values fall back to the defaults.
type Options struct {
	HistoryWindow    int
	FileContextLimit int
	// EscapeTags defuses [[ and ]] in caller-supplied text so a user message
	// or file cannot smuggle directive syntax into the prompt.
	EscapeTags bool
}

// Input is everything Compose reads.
type Input struct {
	UserMessage string
	History     []chat.Message
	Todos       []string
	FileContext string
	Options     Options
}

// Compose returns system persona, the bounded history suffix, and one
// synthesized user turn. It never modifies in.History or in.Todos.
func Compose(in Input) []chat.Message {
	opts := normalizeOptions(in.Options)
	recent := Window(in.History, opts.HistoryWindow)

	out := make([]chat.Message, 0, len(recent)+2)
	out = append(out, chat.Message{Role: chat.RoleSystem, Content: SystemPersona})
	out = append(out, recent...)
	out = append(out, chat.User(renderUserTurn(in, opts)))
	return out
}

// Window returns a copy of the last n entries of history.
func Window(history []chat.Message, n int) []chat.Message {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return chat.CloneMessages(history)
}

// RenderTodos renders the active task block body.
func RenderTodos(todos []string) string {
	if len(todos) == 0 {
		return NoTasksPlaceholder
	}
	lines := make([]string, 0, len(todos))
	for _, t := range todos {
		lines = append(lines, "[ ] "+t)
	}
	return strings.Join(lines, "\n")
}

// TruncateRunes cuts text to at most limit characters.
func TruncateRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// EscapeTags rewrites tag delimiters so the text can no longer form [[...]].
func EscapeTags(text string) string {
	text = strings.ReplaceAll(text, "[[", "[ [")
	return strings.ReplaceAll(text, "]]", "] ]")
}

func renderUserTurn(in Input, opts Options) string {
	userMessage := in.UserMessage
	fileContext := in.FileContext
	if opts.EscapeTags {
		userMessage = EscapeTags(userMessage)
		fileContext = EscapeTags(fileContext)
	}

	fileBlock := NoFileContext
	if strings.TrimSpace(fileContext) != "" {
		fileBlock = "```\n" + TruncateRunes(fileContext, opts.FileContextLimit) + "\n```"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User Request: \"%s\"\n\n", userMessage)
	fmt.Fprintf(&b, "[CURRENT FILE CONTEXT]:\n%s\n\n", fileBlock)
	fmt.Fprintf(&b, "[ACTIVE TASKS]:\n%s\n\n", RenderTodos(in.Todos))
	b.WriteString(instructionsTrailer)
	return b.String()
}

func normalizeOptions(opts Options) Options {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}
	if opts.FileContextLimit <= 0 {
		opts.FileContextLimit = DefaultFileContextLimit
	}
	return opts
}
