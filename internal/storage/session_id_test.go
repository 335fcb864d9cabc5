package storage

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

var hexSuffixRe = regexp.MustCompile(`^[0-9a-f]{8}$`)

func TestNewSessionID_Layout(t *testing.T) {
	before := time.Now().UTC().Unix()
	id := NewSessionID()
	after := time.Now().UTC().Unix()

	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		t.Fatalf("want sess_<unix>_<hex>, got %q", id)
	}
	if parts[0] != "sess" {
		t.Fatalf("prefix=%q", parts[0])
	}
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		t.Fatalf("timestamp %q: %v", parts[1], err)
	}
	if ts < before || ts > after {
		t.Fatalf("timestamp %d outside [%d, %d]", ts, before, after)
	}
	if !hexSuffixRe.MatchString(parts[2]) {
		t.Fatalf("suffix %q is not 8 lowercase hex chars", parts[2])
	}
}

func TestNewSessionID_DistinctWithinSameSecond(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for i := 0; i < 64; i++ {
		id := NewSessionID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate session id %q after %d calls", id, i)
		}
		seen[id] = struct{}{}
	}
}
