package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agriquery/gateway/pkg/gwerr"
)

func TestOk_BuildsSuccessfulResult(t *testing.T) {
	res := Ok(map[string]any{"answer": 42})
	assert.False(t, res.IsErr())
	assert.Equal(t, 42, res.Payload["answer"])
}

func TestErr_BuildsFailedResult(t *testing.T) {
	res := Err(gwerr.New(gwerr.KindInvalidInput, "bad input"))
	assert.True(t, res.IsErr())
	assert.Equal(t, gwerr.KindInvalidInput, res.Err.Kind)
}

func TestTool_Invoke_DelegatesToHandler(t *testing.T) {
	called := false
	tl := &Tool{
		Name: "echo",
		Handler: func(ctx context.Context, args map[string]any) Result {
			called = true
			return Ok(args)
		},
	}

	res := tl.Invoke(context.Background(), map[string]any{"k": "v"})
	assert.True(t, called)
	assert.False(t, res.IsErr())
	assert.Equal(t, "v", res.Payload["k"])
}
