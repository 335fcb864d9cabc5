// Package directive parses to-do control tags out of model replies.
//
// Grammar, matched left to right with the shortest possible body:
//
//	[[ADD_TODO: <payload>]]
//	[[DEL_TODO: <payload>]]
//
// A body never spans a newline. Any other [[...]] tag is not a directive but
// is still stripped from the user-visible text.
package directive

import "strings"

// Kind 指令类型
// Kind is the directive type.
type Kind string

const (
	KindAdd Kind = "ADD"
	KindDel Kind = "DEL"
)

const (
	tagOpen  = "[["
	tagClose = "]]"

	addPrefix = "[[ADD_TODO: "
	delPrefix = "[[DEL_TODO: "
)

// Directive is one parsed control instruction.
type Directive struct {
	Kind    Kind
	Payload string
}

// Result is the outcome of scanning one reply.
type Result struct {
	Clean     string
	Additions []string
	Removals  []string
}

// Directives returns additions then removals as Directive values.
func (r Result) Directives() []Directive {
	out := make([]Directive, 0, len(r.Additions)+len(r.Removals))
	for _, p := range r.Additions {
		out = append(out, Directive{Kind: KindAdd, Payload: p})
	}
	for _, p := range r.Removals {
		out = append(out, Directive{Kind: KindDel, Payload: p})
	}
	return out
}

// Extract scans raw for directives and strips every [[...]] tag.
// Malformed or unterminated tags are left in place; Extract never fails.
func Extract(raw string) Result {
	return Result{
		Clean:     Strip(raw),
		Additions: payloads(raw, addPrefix),
		Removals:  payloads(raw, delPrefix),
	}
}

// Strip removes every well-formed [[...]] tag from text.
func Strip(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	i := 0
	for i < len(text) {
		open := strings.Index(text[i:], tagOpen)
		if open < 0 {
			break
		}
		start := i + open
		end, ok := closeAfter(text, start+len(tagOpen))
		if !ok {
			// 该位置无法匹配，跳过一个字节继续寻找
			// no tag starts here; retry from the next byte
			b.WriteString(text[i : start+1])
			i = start + 1
			continue
		}
		b.WriteString(text[i:start])
		i = end + len(tagClose)
	}
	b.WriteString(text[i:])
	return b.String()
}

// payloads collects, in order, the bodies of every non-overlapping tag that
// starts with prefix. Bodies are returned exactly as written, empty and
// whitespace-only ones included.
func payloads(text, prefix string) []string {
	var out []string
	i := 0
	for i < len(text) {
		at := strings.Index(text[i:], prefix)
		if at < 0 {
			break
		}
		start := i + at
		bodyStart := start + len(prefix)
		end, ok := closeAfter(text, bodyStart)
		if !ok {
			i = start + 1
			continue
		}
		out = append(out, text[bodyStart:end])
		i = end + len(tagClose)
	}
	return out
}

// IsBlank reports whether a payload is empty or only whitespace. A blank
// removal matches every task (or every task with a space in it).
func IsBlank(payload string) bool {
	return strings.TrimSpace(payload) == ""
}

// closeAfter finds the first "]]" at or after from, provided no newline
// occurs before it.
func closeAfter(text string, from int) (int, bool) {
	rest := text[from:]
	end := strings.Index(rest, tagClose)
	if end < 0 {
		return 0, false
	}
	if strings.IndexByte(rest[:end], '\n') >= 0 {
		return 0, false
	}
	return from + end, true
}
