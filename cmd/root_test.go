// File: cmd/root_test.go
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistration(t *testing.T) {
	expected := []string{"repos", "benchmark", "generate", "analyze", "load", "purge"}

	registered := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "command %q should be registered", name)
	}
}

func TestBenchmarkCommandFlags(t *testing.T) {
	cmd := newBenchmarkCmd()
	assert.NotNil(t, cmd.Flags().Lookup("kits"))
	assert.NotNil(t, cmd.Flags().Lookup("repo"))
}

func TestReposCommandFlags(t *testing.T) {
	cmd := newReposCmd()
	assert.NotNil(t, cmd.Flags().Lookup("language"))
	assert.NotNil(t, cmd.Flags().Lookup("min-lang-size"))
	assert.NotNil(t, cmd.Flags().Lookup("sample"))
}

func TestLoadCommandFlags(t *testing.T) {
	cmd := newLoadCmd()
	assert.NotNil(t, cmd.Flags().Lookup("sample-id"))
}

func TestGenerateCommandRequiresRepoArg(t *testing.T) {
	cmd := newGenerateCmd()
	err := cmd.Args(cmd, []string{})
	require.Error(t, err)
	assert.NoError(t, cmd.Args(cmd, []string{"https://github.com/acme/widgets"}))
}
