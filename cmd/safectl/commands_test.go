package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"backfill", "import", "export", "checklist"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRootCmd_UserFlag(t *testing.T) {
	root := newRootCmd()

	backfill, _, err := root.Find([]string{"backfill"})
	require.NoError(t, err)
	flag := backfill.Flags().Lookup("user")
	require.NotNil(t, flag)
	_, required := flag.Annotations[cobra.BashCompOneRequiredFlag]
	assert.False(t, required, "backfill scans every user without --user")

	export, _, err := root.Find([]string{"export"})
	require.NoError(t, err)
	flag = export.Flags().Lookup("user")
	require.NotNil(t, flag)
	_, required = flag.Annotations[cobra.BashCompOneRequiredFlag]
	assert.True(t, required)
	assert.Equal(t, "xlsx", export.Flags().Lookup("format").DefValue)
}

func TestCheckUser(t *testing.T) {
	assert.NoError(t, checkUser(""))
	assert.NoError(t, checkUser("0190a6e2-7c4b-7d2e-9f3a-1b2c3d4e5f60"))
	assert.Error(t, checkUser("42"))
}
