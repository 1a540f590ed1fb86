package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"build", "validate", "sources", "serve"} {
		assert.True(t, names[want], "command %q not registered", want)
	}
}

func TestBuildFlags(t *testing.T) {
	require.NotNil(t, buildCmd.Flags().Lookup("sources"))
	require.NotNil(t, buildCmd.Flags().Lookup("out"))
	require.NotNil(t, buildCmd.Flags().Lookup("store"))
	require.NotNil(t, buildCmd.Flags().Lookup("dry-run"))
}
