package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeFetchTimeout, "gnews request timed out")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeFetchTimeout, err.Code)
	assert.Equal(t, "[FETCH_002] gnews request timed out", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestErrorWithDetail(t *testing.T) {
	err := New(ErrCodeSinkWriteFailed, "csv append failed").WithDetail("attribute=Ruritania")
	assert.Equal(t, "[SINK_001] csv append failed: attribute=Ruritania", err.Error())
}

func TestWithDetailNilReceiver(t *testing.T) {
	var err *AppError
	assert.Nil(t, err.WithDetail("ignored"))
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeValidatorCallFailed, "validator unreachable")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeValidatorCallFailed, err.Code)
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "never happens"))
}

func TestWrapPreservesCodeForUnknown(t *testing.T) {
	inner := New(ErrCodeAllSourcesFailed, "every fetcher errored")
	wrapped := Wrap(inner, CodeUnknown, "cycle aborted")
	assert.Equal(t, ErrCodeAllSourcesFailed, wrapped.Code)
}

func TestIsCodeTraversesChain(t *testing.T) {
	inner := New(ErrCodeCorpusLoadFailed, "bad jsonl line")
	mid := fmt.Errorf("loading corpus: %w", inner)
	outer := Wrap(mid, ErrCodeFetchFailed, "corpus fetch failed")

	assert.True(t, IsCode(outer, ErrCodeCorpusLoadFailed))
	assert.True(t, IsCode(outer, ErrCodeFetchFailed))
	assert.False(t, IsCode(outer, ErrCodeSinkWriteFailed))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeCycleTimeout, GetCode(New(ErrCodeCycleTimeout, "deadline hit")))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(New(ErrCodeFetchTimeout, "t")))
	assert.True(t, IsTimeout(Wrap(New(ErrCodeCycleTimeout, "t"), ErrCodeInternal, "wrapped")))
	assert.False(t, IsTimeout(New(ErrCodeNotFound, "nope")))
}

func TestConvenienceFactories(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NotFound("x").Code)
	assert.Equal(t, ErrCodeBadRequest, InvalidParam("x").Code)
	assert.Equal(t, ErrCodeInternal, Internal("x").Code)
	assert.Equal(t, ErrCodeServiceUnavailable, Unavailable("x").Code)
}

//Personal.AI order the ending
