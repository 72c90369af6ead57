package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	require.Equal(t, KindConflict, KindOf(Conflict("taken")))
	require.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	require.Equal(t, KindInternal, KindOf(errors.New("boom")))
	require.Equal(t, KindInternal, KindOf(nil))

	// 存储超时按结果未知归类
	require.Equal(t, KindTimeout, KindOf(context.DeadlineExceeded))
	require.Equal(t, KindTimeout, KindOf(fmt.Errorf("query: %w", context.DeadlineExceeded)))
}

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	inner := Conflict("edge changed concurrently")
	wrapped := fmt.Errorf("toggle: %w", inner)
	require.True(t, Is(wrapped, KindConflict))
	require.False(t, Is(wrapped, KindNotFound))
	require.False(t, Is(nil, KindConflict))
}

func TestErrorString(t *testing.T) {
	err := Wrap(KindTimeout, "counter write", context.DeadlineExceeded)
	require.Contains(t, err.Error(), "timeout")
	require.Contains(t, err.Error(), "counter write")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
