package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	base := errors.New("boom")

	assert.Equal(t, "", CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(base))
	assert.Equal(t, CodeNotFound, CodeOf(NotFoundError("Get", base)))
	assert.Equal(t, CodeDuplicateKey, CodeOf(fmt.Errorf("wrapped: %w", DuplicateKeyError("Register", "a.b", base))))
}

func TestWrapKeepsChain(t *testing.T) {
	base := errors.New("boom")
	err := WrapWithReason("Apply", CodeParseFailed, base, "bad_json")

	require.ErrorIs(t, err, base)
	assert.Equal(t, "Apply: boom", err.Error())

	reason, ok := MetaOf(err, MetaReason)
	require.True(t, ok)
	assert.Equal(t, "bad_json", reason)
}

func TestDuplicateKeyErrorMetadata(t *testing.T) {
	err := DuplicateKeyError("Register", "agent_settings.llm_provider", errors.New("dup"))

	key, ok := MetaOf(err, MetaKey)
	require.True(t, ok)
	assert.Equal(t, "agent_settings.llm_provider", key)

	_, ok = MetaOf(errors.New("plain"), MetaKey)
	assert.False(t, ok)
}
