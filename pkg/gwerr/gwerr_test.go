package gwerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndError(t *testing.T) {
	e := New(KindInvalidInput, "bad query")
	assert.Equal(t, "invalid-input: bad query", e.Error())

	withField := e.WithField("query")
	assert.Equal(t, "invalid-input: bad query (field=query)", withField.Error())
	assert.Equal(t, "", e.Field, "WithField must not mutate the receiver")
}

func TestNewf(t *testing.T) {
	e := Newf(KindNotFound, "unknown location %q", "atlantis")
	assert.Equal(t, KindNotFound, e.Kind)
	assert.Contains(t, e.Error(), "atlantis")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	e := Wrap(KindBackendUnavailable, cause, "weather upstream unreachable")

	require.True(t, errors.Is(e, cause))
	assert.Equal(t, cause, errors.Unwrap(e))
}

func TestAs(t *testing.T) {
	var err error = Wrap(KindTimeout, errors.New("context deadline exceeded"), "tool timed out")

	got, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, got.Kind)

	_, ok = As(errors.New("plain error"))
	assert.False(t, ok)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(New(KindConflict, "duplicate")))
	assert.Equal(t, KindInternal, KindOf(errors.New("unrelated")))
}
