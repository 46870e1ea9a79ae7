package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPServeCmd_Flags(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "p", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
	assert.Contains(t, mcpServeCmd.Long, "import_records")
}

func TestServeCmd_WatchRequiresDir(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "serve", "--watch")
	assert.ErrorContains(t, err, "watch.dir")
}

func TestWatchCmd_RequiresDir(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "watch")
	assert.ErrorContains(t, err, "watch.dir")
}
