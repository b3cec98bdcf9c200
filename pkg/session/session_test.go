package session

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dsnCounter int

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsnCounter++
	s, err := OpenStore(fmt.Sprintf("file:session-test-%d?mode=memory&cache=shared", dsnCounter))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppend_CreatesSessionOnFirstMessage(t *testing.T) {
	s := openTestStore(t)

	msg := Message{ID: NewMessageID(), Role: RoleUser, Text: "what's the weather in Punjab?"}
	require.NoError(t, s.Append("alice", "sess-1", msg))

	got, err := s.Get("alice", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, 1, got.MessageCount)
	assert.Equal(t, msg.Text, got.Title)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, msg.ID, got.Messages[0].ID)
}

func TestAppend_IsIdempotentOnMessageID(t *testing.T) {
	s := openTestStore(t)

	msg := Message{ID: "m-1", Role: RoleUser, Text: "hello"}
	require.NoError(t, s.Append("alice", "sess-1", msg))
	require.NoError(t, s.Append("alice", "sess-1", msg))

	got, err := s.Get("alice", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.MessageCount)
	assert.Len(t, got.Messages, 1)
}

func TestAppend_PreservesOrderAcrossMultipleMessages(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Append("alice", "sess-1", Message{ID: "m-1", Role: RoleUser, Text: "first"}))
	require.NoError(t, s.Append("alice", "sess-1", Message{ID: "m-2", Role: RoleAssistant, Text: "second"}))
	require.NoError(t, s.Append("alice", "sess-1", Message{ID: "m-3", Role: RoleUser, Text: "third"}))

	got, err := s.Get("alice", "sess-1")
	require.NoError(t, err)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "first", got.Messages[0].Text)
	assert.Equal(t, "second", got.Messages[1].Text)
	assert.Equal(t, "third", got.Messages[2].Text)
}

func TestGet_UnknownSessionReturnsNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("alice", "does-not-exist")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGet_ScopedByUser(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Append("alice", "sess-1", Message{ID: "m-1", Role: RoleUser, Text: "hi"}))

	_, err := s.Get("bob", "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestList_OrdersByLastUpdatedDescAndRespectsLimit(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Append("alice", "sess-1", Message{ID: "m-1", Role: RoleUser, Text: "one"}))
	require.NoError(t, s.Append("alice", "sess-2", Message{ID: "m-2", Role: RoleUser, Text: "two"}))
	require.NoError(t, s.Append("alice", "sess-1", Message{ID: "m-3", Role: RoleUser, Text: "one again"}))

	all, err := s.List("alice", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "sess-1", all[0].SessionID, "sess-1 was touched most recently")

	limited, err := s.List("alice", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDelete_RemovesSessionAndMessages(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Append("alice", "sess-1", Message{ID: "m-1", Role: RoleUser, Text: "hi"}))

	deleted, err := s.Delete("alice", "sess-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.Get("alice", "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDelete_UnknownSessionReturnsFalse(t *testing.T) {
	s := openTestStore(t)

	deleted, err := s.Delete("alice", "does-not-exist")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeriveTitle_TruncatesAtWordBoundaryAndDefaults(t *testing.T) {
	long := Message{Text: "this is a very long opening message that definitely exceeds the sixty character title cap by quite a lot"}
	title := deriveTitle(long)
	assert.LessOrEqual(t, len(title), maxTitleLength)
	assert.NotEqual(t, byte(' '), title[len(title)-1])
	assert.True(t, strings.HasPrefix(long.Text, title))

	empty := Message{Text: ""}
	assert.Equal(t, "New conversation", deriveTitle(empty))
}

func TestNewMessageID_IsUnique(t *testing.T) {
	assert.NotEqual(t, NewMessageID(), NewMessageID())
}
