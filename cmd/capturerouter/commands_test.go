package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CaptureRouter/internal/config"
)

func TestRootRegistersCommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "digest", "domain-digest", "check", "webhook"} {
		assert.Contains(t, names, want)
	}

	digest, _, err := root.Find([]string{"digest"})
	require.NoError(t, err)
	assert.NotNil(t, digest.Flags().Lookup("dry-run"))
	assert.NotNil(t, digest.Flags().Lookup("no-ai"))

	domain, _, err := root.Find([]string{"domain-digest"})
	require.NoError(t, err)
	assert.NotNil(t, domain.Flags().Lookup("hours"))
	assert.NotNil(t, domain.Flags().Lookup("list"))
}

func TestCommandsRefuseInvalidConfig(t *testing.T) {
	t.Setenv("READWISE_TOKEN", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("CAPTURE_ROUTER_CONFIG", "")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"check"})

	err := root.Execute()
	require.ErrorIs(t, err, config.ErrInvalid)
}
