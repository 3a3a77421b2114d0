package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runResolve(t *testing.T, configYAML string, args ...string) (string, error) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"resolve", "--config", path}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveDefaultPolicy(t *testing.T) {
	out, err := runResolve(t, "server:\n  port: \"8080\"\n", "--task", "sustainability_analysis", "--complexity", "low")
	require.NoError(t, err)

	assert.Contains(t, out, "task=sustainability_analysis complexity=low")
	assert.Regexp(t, `1\s+primary\s+gemini\s+gemini-1\.5-pro`, out)
	assert.Regexp(t, `2\s+fallback\s+gemini\s+gemini-1\.0-pro`, out)
}

func TestResolveDefaultsTaskAndComplexity(t *testing.T) {
	out, err := runResolve(t, "server:\n  port: \"8080\"\n")
	require.NoError(t, err)

	assert.Contains(t, out, "task=general complexity=medium")
	assert.Regexp(t, `1\s+primary\s+gemini\s+gemini-1\.5-flash`, out)
}

func TestResolveConfiguredPolicy(t *testing.T) {
	cfg := `
policy:
  tasks:
    recommendations: "openai:gpt-4o-mini"
  fallback_model: "gemini-1.0-pro"
`
	out, err := runResolve(t, cfg, "-t", "recommendations")
	require.NoError(t, err)
	assert.Regexp(t, `1\s+primary\s+openai\s+gpt-4o-mini`, out)
}

func TestResolveMissingConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"resolve", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, cmd.Execute())
}
