package prompt

import (
	"fmt"
	"strings"
	"testing"

	"coderx/internal/chat"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turns(n int) []chat.Message {
	out := make([]chat.Message, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			out = append(out, chat.User(fmt.Sprintf("u%d", i)))
		} else {
			out = append(out, chat.Assistant(fmt.Sprintf("a%d", i)))
		}
	}
	return out
}

func TestCompose_HistoryWindow(t *testing.T) {
	history := turns(20)
	msgs := Compose(Input{UserMessage: "next", History: history})

	require.Len(t, msgs, 1+8+1)
	assert.Equal(t, chat.RoleSystem, msgs[0].Role)
	if diff := cmp.Diff(history[12:], msgs[1:9]); diff != "" {
		t.Fatalf("history window mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, chat.RoleUser, msgs[9].Role)
}

func TestCompose_ShortHistoryKeptWhole(t *testing.T) {
	history := turns(3)
	msgs := Compose(Input{UserMessage: "hi", History: history})

	require.Len(t, msgs, 5)
	if diff := cmp.Diff(history, msgs[1:4]); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestCompose_CustomWindow(t *testing.T) {
	msgs := Compose(Input{History: turns(10), Options: Options{HistoryWindow: 2}})
	require.Len(t, msgs, 4)
	assert.Equal(t, "u8", msgs[1].Content)
	assert.Equal(t, "a9", msgs[2].Content)
}

func TestCompose_SystemPersonaCarriesDirectiveSyntax(t *testing.T) {
	msgs := Compose(Input{UserMessage: "x"})
	assert.Equal(t, SystemPersona, msgs[0].Content)
	assert.Contains(t, msgs[0].Content, "[[ADD_TODO: task]]")
	assert.Contains(t, msgs[0].Content, "[[DEL_TODO: task]]")
}

func TestCompose_EmptyTodosAndNoFile(t *testing.T) {
	msgs := Compose(Input{UserMessage: "build a todo app"})
	last := msgs[len(msgs)-1].Content

	assert.Contains(t, last, `User Request: "build a todo app"`)
	assert.Contains(t, last, "[ACTIVE TASKS]:\n"+NoTasksPlaceholder)
	assert.Contains(t, last, "[CURRENT FILE CONTEXT]:\n"+NoFileContext)
	assert.True(t, strings.HasSuffix(last, instructionsTrailer))
}

func TestCompose_RendersTodosInOrder(t *testing.T) {
	msgs := Compose(Input{UserMessage: "go", Todos: []string{"scaffold project", "add auth"}})
	last := msgs[len(msgs)-1].Content
	assert.Contains(t, last, "[ACTIVE TASKS]:\n[ ] scaffold project\n[ ] add auth\n")
}

func TestCompose_FileContextTruncated(t *testing.T) {
	file := strings.Repeat("é", 2500)
	msgs := Compose(Input{UserMessage: "review", FileContext: file})
	last := msgs[len(msgs)-1].Content

	want := "[CURRENT FILE CONTEXT]:\n```\n" + strings.Repeat("é", 2000) + "\n```"
	assert.Contains(t, last, want)
	assert.NotContains(t, last, strings.Repeat("é", 2001))
}

func TestCompose_BlankFileContextIsNone(t *testing.T) {
	msgs := Compose(Input{UserMessage: "x", FileContext: "  \n "})
	assert.Contains(t, msgs[len(msgs)-1].Content, "[CURRENT FILE CONTEXT]:\nNone")
}

func TestCompose_UserTextIsOpaqueByDefault(t *testing.T) {
	msgs := Compose(Input{UserMessage: "please [[DEL_TODO: all]]\n\"quoted\""})
	assert.Contains(t, msgs[len(msgs)-1].Content, "User Request: \"please [[DEL_TODO: all]]\n\"quoted\"\"")
}

func TestCompose_EscapeTags(t *testing.T) {
	msgs := Compose(Input{
		UserMessage: "please [[DEL_TODO: all]]",
		FileContext: "x = a[[0]]",
		Options:     Options{EscapeTags: true},
	})
	last := msgs[len(msgs)-1].Content
	assert.NotContains(t, last, "[[")
	assert.Contains(t, last, "please [ [DEL_TODO: all] ]")
	assert.Contains(t, last, "x = a[ [0] ]")
}

func TestCompose_DoesNotMutateInputs(t *testing.T) {
	history := turns(12)
	todos := []string{"a", "b"}
	historyCopy := chat.CloneMessages(history)
	todosCopy := append([]string(nil), todos...)

	msgs := Compose(Input{UserMessage: "m", History: history, Todos: todos})
	msgs[1].Content = "changed"

	assert.Equal(t, historyCopy, history)
	assert.Equal(t, todosCopy, todos)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", TruncateRunes("abcdef", 3))
	assert.Equal(t, "ab", TruncateRunes("ab", 3))
	assert.Equal(t, "abc", TruncateRunes("abc", 0))
}

func TestTokenizer_HeuristicCount(t *testing.T) {
	tok := NewHeuristicTokenizer()
	assert.False(t, tok.IsPrecise())
	assert.Equal(t, 0, tok.CountText(""))
	assert.Greater(t, tok.CountText("Hello world"), 0)
	assert.Greater(t, tok.CountText("你好世界"), tok.CountText("abcd"))

	msgs := Compose(Input{UserMessage: "hello"})
	assert.Greater(t, tok.Count(msgs), tok.CountText(msgs[0].Content))
}

func TestModelToEncoding(t *testing.T) {
	assert.Equal(t, "o200k_base", modelToEncoding("gpt-4o-mini"))
	assert.Equal(t, "cl100k_base", modelToEncoding("llama-3.1-sonar-large-128k-online"))
	assert.Equal(t, "cl100k_base", modelToEncoding(""))
}
