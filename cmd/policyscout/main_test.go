package main_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	main "policyscout/cmd/policyscout"
)

func TestCLI_shows_help_when_asked(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"--help"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "policyscout")
	assert.Contains(t, stdout.String(), "url")
}

func TestCLI_shows_help_when_no_arguments_provided(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, stdout.String(), "policyscout")
}

func TestCLI_rejects_unknown_flags(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"--no-such-flag", "https://example.com"}, &stdout, &stderr)

	assert.Error(t, err)
}

func TestCLI_rejects_disallowed_root_url(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"http://localhost:8080"}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disallowed")
}

func TestCLI_rejects_unsupported_scheme(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	var stdout, stderr bytes.Buffer

	err := m.Run(context.Background(), []string{"ftp://example.com"}, &stdout, &stderr)

	require.Error(t, err)
}
