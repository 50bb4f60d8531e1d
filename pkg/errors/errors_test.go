package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	base := New("boom")
	wrapped := WithContext(WithContext(base, "read file"), "parse config")

	assert.Equal(t, "parse config: read file: boom", wrapped.Error())
	assert.Equal(t, base, RootCause(wrapped))
	assert.Equal(t, base, RootCause(base))
}

func TestGetPrintableMessage(t *testing.T) {
	friendly := NewFriendlyError("roots aren't configured. Run `%s` first.", "pasync configure")
	assert.Equal(t, "roots aren't configured. Run `pasync configure` first.",
		GetPrintableMessage(friendly))

	plain := New("boom")
	assert.Equal(t, "boom", GetPrintableMessage(plain))
}

func TestRootCauseFindsTypedError(t *testing.T) {
	err := WithContext(FileNotFound{Path: "/tmp/missing"}, "plan")
	_, ok := RootCause(err).(FileNotFound)
	assert.True(t, ok)
}
