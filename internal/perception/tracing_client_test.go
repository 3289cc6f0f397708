package perception

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beeno/internal/types"
)

type failingTranslator struct{ err error }

func (f failingTranslator) Translate(context.Context, types.TranslateRequest) (*types.TranslateResult, error) {
	return nil, f.err
}

func TestTracingTranslator(t *testing.T) {
	tc := NewTracingTranslator(NewMockTranslator())
	_, ok := tc.LastTrace()
	assert.False(t, ok)

	res, err := tc.Translate(context.Background(), types.TranslateRequest{Input: "hi", Mode: "eval"})
	require.NoError(t, err)
	assert.Equal(t, `console.log("hi");`, res.Code)

	trace, ok := tc.LastTrace()
	require.True(t, ok)
	assert.True(t, trace.Successful)
	assert.Equal(t, "eval", trace.Mode)
	assert.Equal(t, uint32(8), trace.Tokens)

	calls, failed := tc.Stats()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, failed)
}

func TestTracingTranslator_RecordsFailures(t *testing.T) {
	tc := NewTracingTranslator(failingTranslator{err: invalidResponse(ProviderHTTP, "missing string field `code`", nil)})

	_, err := tc.Translate(context.Background(), types.TranslateRequest{Input: "x"})
	require.Error(t, err)
	assert.True(t, IsInvalidResponse(err))

	trace, ok := tc.LastTrace()
	require.True(t, ok)
	assert.False(t, trace.Successful)
	assert.Equal(t, "invalid_response", trace.ErrorKind)

	calls, failed := tc.Stats()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, failed)
}
