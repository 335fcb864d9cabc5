package todo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce_AppendsInOrder(t *testing.T) {
	got := Reduce(nil, []string{"scaffold project", "write handlers"}, nil)
	assert.Equal(t, []string{"scaffold project", "write handlers"}, got)
}

func TestReduce_IdempotentAdd(t *testing.T) {
	current := []string{"scaffold project", "write handlers"}
	once := Reduce(current, []string{"scaffold project"}, nil)
	twice := Reduce(once, []string{"scaffold project"}, nil)

	assert.Equal(t, current, once)
	assert.Equal(t, current, twice)
}

func TestReduce_AddIsCaseSensitive(t *testing.T) {
	got := Reduce([]string{"Write tests"}, []string{"write tests"}, nil)
	assert.Equal(t, []string{"Write tests", "write tests"}, got)
}

func TestReduce_DuplicateWithinBatch(t *testing.T) {
	got := Reduce(nil, []string{"a", "a", "b"}, nil)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestReduce_RemovalIsCaseInsensitiveSubstring(t *testing.T) {
	got := Reduce([]string{"Install Flask", "Write tests"}, nil, []string{"flask"})
	assert.Equal(t, []string{"Write tests"}, got)
}

func TestReduce_SequentialRemovals(t *testing.T) {
	got, change := ReduceWithChange([]string{"Setup test DB", "Run tests"}, nil, []string{"test", "Run"})
	assert.Empty(t, got)

	require.Len(t, change.Removed, 2)
	assert.Equal(t, []string{"Setup test DB", "Run tests"}, change.Removed[0].Deleted)
	assert.Empty(t, change.Removed[1].Deleted)
}

func TestReduce_RemovalPreservesOrder(t *testing.T) {
	got := Reduce([]string{"a1", "b", "a2", "c"}, nil, []string{"A"})
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestReduce_AddThenRemoveInSameBatch(t *testing.T) {
	got := Reduce([]string{"lint"}, []string{"deploy app"}, []string{"deploy"})
	assert.Equal(t, []string{"lint"}, got)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	current := []string{"Install Flask", "Write tests", "Ship"}
	snapshot := append([]string(nil), current...)

	_ = Reduce(current, []string{"Docs"}, []string{"flask"})
	assert.Equal(t, snapshot, current)
}

func TestChange_Overreaching(t *testing.T) {
	_, change := ReduceWithChange([]string{"unit test", "e2e test", "deploy"}, nil, []string{"test", "deploy"})

	over := change.Overreaching()
	require.Len(t, over, 1)
	assert.Equal(t, "test", over[0].Pattern)
	assert.Len(t, over[0].Deleted, 2)
}
