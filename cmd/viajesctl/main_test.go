package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandListsSubcommands(t *testing.T) {
	root := newRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"migrate", "seed", "jobs"})

	migrate, _, err := root.Find([]string{"migrate", "status"})
	require.NoError(t, err)
	assert.Equal(t, "status", migrate.Name())
}

func TestSeedCommandFlags(t *testing.T) {
	seed := newSeedCommand()
	require.NotNil(t, seed.Flags().Lookup("admin-email"))
	require.NotNil(t, seed.Flags().Lookup("admin-password"))
}

func TestMigrateWithoutSubcommandPrintsHelp(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"migrate"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "up")
	assert.Contains(t, out.String(), "status")
}
