package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContainsUnseenReturnsZero(t *testing.T) {
	h := New[string](10 * time.Millisecond)
	assert.Equal(t, 0, h.Contains("chan", "message"))
}

func TestContainsFindsPushed(t *testing.T) {
	h := New[string](time.Second)
	h.Push("chan", "message")
	assert.Equal(t, 1, h.Contains("chan", "message"))
}

func TestContainsCounts(t *testing.T) {
	h := New[string](time.Second)
	h.Push("chan", "message")
	assert.Equal(t, 1, h.Contains("chan", "message"))
	assert.Equal(t, 2, h.Contains("chan", "message"))
	assert.Equal(t, 3, h.Contains("chan", "message"))
}

func TestContainsExpires(t *testing.T) {
	h := New[string](10 * time.Millisecond)
	h.Push("chan", "message")
	assert.Equal(t, 1, h.Contains("chan", "message"))

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, 0, h.Contains("chan", "message"))
}

func TestContainsKeysAreIndependent(t *testing.T) {
	h := New[string](time.Second)
	h.Push("chan-a", "message")
	assert.Equal(t, 0, h.Contains("chan-b", "message"))
	assert.Equal(t, 1, h.Contains("chan-a", "message"))
}

func TestContainsDistinctPayloads(t *testing.T) {
	h := New[string](time.Second)
	h.Push("chan", "one")
	h.Push("chan", "two")
	assert.Equal(t, 1, h.Contains("chan", "two"))
	assert.Equal(t, 1, h.Contains("chan", "one"))
}
