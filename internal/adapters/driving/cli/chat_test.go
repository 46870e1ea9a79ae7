package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCmd_LineMode(t *testing.T) {
	setupTestServices(t)
	seedFAQ(t)

	out, err := execute(t, "where do visitors park?\n\nwhen does the office open?\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Visitors park in lot B")
	assert.Contains(t, out, "The office opens at 9am")
}

func TestChatCmd_InvalidMode(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "chat", "--mode", "poetic")
	assert.Error(t, err)
}

func TestChatCmd_ReportsErrorsAndContinues(t *testing.T) {
	setupTestServices(t)
	seedFAQ(t)

	out, err := execute(t, "parking\n", "chat", "--mode", "generative")
	require.NoError(t, err)
	assert.Contains(t, out, "error:")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(bytes.NewReader(nil)))

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))
}
