package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_AddRoundTrip(t *testing.T) {
	res := Extract("Plan ready.[[ADD_TODO: scaffold project]] Go.")

	assert.Equal(t, []string{"scaffold project"}, res.Additions)
	assert.Empty(t, res.Removals)
	assert.Equal(t, "Plan ready. Go.", res.Clean)
	assert.NotContains(t, res.Clean, "[[ADD_TODO: scaffold project]]")
}

func TestExtract_MultipleInOrder(t *testing.T) {
	raw := "[[DEL_TODO: old]] a [[ADD_TODO: one]] b [[ADD_TODO: two]] [[DEL_TODO: older]]"
	res := Extract(raw)

	assert.Equal(t, []string{"one", "two"}, res.Additions)
	assert.Equal(t, []string{"old", "older"}, res.Removals)
	assert.Equal(t, " a  b  ", res.Clean)
	assert.Equal(t, []Directive{
		{Kind: KindAdd, Payload: "one"},
		{Kind: KindAdd, Payload: "two"},
		{Kind: KindDel, Payload: "old"},
		{Kind: KindDel, Payload: "older"},
	}, res.Directives())
}

func TestExtract_UnknownTagStrippedWithoutDirective(t *testing.T) {
	res := Extract("keep [[NOTE: ignore]]this")

	assert.Empty(t, res.Additions)
	assert.Empty(t, res.Removals)
	assert.Equal(t, "keep this", res.Clean)
}

func TestExtract_NonGreedyBody(t *testing.T) {
	res := Extract("[[ADD_TODO: a]] and ]] [[ADD_TODO: b]]")

	assert.Equal(t, []string{"a", "b"}, res.Additions)
	assert.Equal(t, " and ]] ", res.Clean)
}

func TestExtract_UnterminatedStaysVisible(t *testing.T) {
	raw := "start [[ADD_TODO: never closed"
	res := Extract(raw)

	assert.Empty(t, res.Additions)
	assert.Equal(t, raw, res.Clean)
}

func TestExtract_TagDoesNotSpanNewline(t *testing.T) {
	raw := "[[ADD_TODO: first\nline]] then [[ADD_TODO: ok]]"
	res := Extract(raw)

	assert.Equal(t, []string{"ok"}, res.Additions)
	assert.Equal(t, "[[ADD_TODO: first\nline]] then ", res.Clean)
}

func TestExtract_PrefixRequiresSpace(t *testing.T) {
	res := Extract("[[ADD_TODO:nospace]]")

	assert.Empty(t, res.Additions)
	assert.Equal(t, "", res.Clean)
}

func TestExtract_BlankPayloadsKeptAsWritten(t *testing.T) {
	res := Extract("done [[DEL_TODO:  ]] ok [[ADD_TODO: ]]")

	assert.Equal(t, []string{" "}, res.Removals)
	assert.Equal(t, []string{""}, res.Additions)
	assert.Equal(t, "done  ok ", res.Clean)
}

func TestIsBlank(t *testing.T) {
	assert.True(t, IsBlank(""))
	assert.True(t, IsBlank(" \t"))
	assert.False(t, IsBlank(" x "))
}

func TestExtract_PayloadKeptVerbatim(t *testing.T) {
	res := Extract("[[ADD_TODO:  padded task ]]")
	assert.Equal(t, []string{" padded task "}, res.Additions)
}

func TestExtract_NestedOpenersStripFromFirst(t *testing.T) {
	res := Extract("x [[outer [[ADD_TODO: inner]] y")

	// the directive scan and the strip scan are independent
	assert.Equal(t, []string{"inner"}, res.Additions)
	assert.Equal(t, "x  y", res.Clean)
}

func TestStrip_NoTags(t *testing.T) {
	assert.Equal(t, "plain [text] here", Strip("plain [text] here"))
	assert.Equal(t, "", Strip(""))
}

func TestStrip_TripleBracket(t *testing.T) {
	assert.Equal(t, "a", Strip("a[[[x]]"))
	assert.Equal(t, "]b", Strip("[[x]]]b"))
}

func TestStrip_PreservesWhitespace(t *testing.T) {
	assert.Equal(t, "line1\n\nline3", Strip("line1\n[[ADD_TODO: t]]\nline3"))
}
