package services

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/SamuelLeutner/fetch-canvas-grades/errors"
)

func stubTerminal(t *testing.T, terminal bool, password string, err error) {
	t.Helper()
	origRead, origTerm := readPasswordFunc, isTerminalFunc
	t.Cleanup(func() { readPasswordFunc, isTerminalFunc = origRead, origTerm })

	isTerminalFunc = func(int) bool { return terminal }
	readPasswordFunc = func(int) ([]byte, error) { return []byte(password), err }
}

func TestResolveTokenPrefersConfigured(t *testing.T) {
	stubTerminal(t, true, "prompted", nil)
	token, err := ResolveToken("  configured  ", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "configured", token)
}

func TestResolveTokenPrompts(t *testing.T) {
	stubTerminal(t, true, "prompted\n", nil)
	var out bytes.Buffer
	token, err := ResolveToken("", &out)
	require.NoError(t, err)
	assert.Equal(t, "prompted", token)
	assert.Contains(t, out.String(), "API token")
}

func TestResolveTokenFailures(t *testing.T) {
	stubTerminal(t, false, "", nil)
	_, err := ResolveToken("", &bytes.Buffer{})
	assert.True(t, appErrors.HasCode(err, appErrors.CodeInvalidToken))

	stubTerminal(t, true, "", nil)
	_, err = ResolveToken("", &bytes.Buffer{})
	assert.True(t, appErrors.HasCode(err, appErrors.CodeInvalidToken))

	stubTerminal(t, true, "", errors.New("tty closed"))
	_, err = ResolveToken("", &bytes.Buffer{})
	assert.True(t, appErrors.HasCode(err, appErrors.CodeInvalidToken))
}
