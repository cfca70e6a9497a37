package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsentry/docsentry/pkg/config"
)

func TestChatConfigFrom(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.LLM.Model = "llama3"
	cfg.LLM.MaxTokens = 1500
	cfg.LLM.Temperature = 0.2
	cfg.LLM.TimeoutSecs = 45

	chat := chatConfigFrom(cfg)

	assert.Equal(t, "llama3", chat.Model)
	assert.Equal(t, 1500, chat.MaxTokens)
	assert.Equal(t, 0.2, chat.Temperature)
	assert.Equal(t, 45*time.Second, chat.Timeout)
}

func TestChatConfigFrom_DefaultTimeout(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	chat := chatConfigFrom(cfg)

	assert.Equal(t, 120*time.Second, chat.Timeout)
}
