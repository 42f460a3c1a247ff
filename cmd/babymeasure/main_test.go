package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"babymeasure/internal/config"
)

func newMemoryApp(t *testing.T) *application {
	t.Helper()
	cfg := config.Default()
	cfg.Store = config.StoreConfig{Driver: "memory"}
	cfg.Chatbot.Timezone = "UTC"
	a, err := newApplication(&cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAsk_REPL(t *testing.T) {
	a := newMemoryApp(t)
	chart := filepath.Join(t.TempDir(), "chart.png")

	in := strings.NewReader("log formula 120ml\n\nhow much formula\nhello\n")
	var out bytes.Buffer
	require.NoError(t, ask(context.Background(), a.chat, nil, in, &out, chart))

	got := out.String()
	assert.Contains(t, got, "The following content has been added to the bottle db")
	assert.Contains(t, got, "(chart written to "+chart+")")
	assert.Contains(t, got, "was 120 ml")
	assert.Contains(t, got, "Sorry, I didn't get that.")

	png, err := os.ReadFile(chart)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestAsk_OneShot(t *testing.T) {
	a := newMemoryApp(t)
	var out bytes.Buffer
	require.NoError(t, ask(context.Background(), a.chat, []string{"log", "nappy", "poo"}, nil, &out, ""))
	assert.Contains(t, out.String(), "diaper db")
	assert.Contains(t, out.String(), "use --chart to save it")
}

func TestNewApplication_Wiring(t *testing.T) {
	a := newMemoryApp(t)
	assert.Nil(t, a.queue, "publishing is off by default")
	assert.Nil(t, a.pairing, "telegram is off by default")
	assert.NotNil(t, a.services.Auth)

	cfg := config.Default()
	cfg.Store = config.StoreConfig{Driver: "memory"}
	cfg.Chatbot.Timezone = "UTC"
	cfg.Publish.Enabled = true
	cfg.Publish.Dir = t.TempDir()
	cfg.Telegram = config.TelegramConfig{Enabled: true, Token: "t", Secret: "s", MaxAttempts: 3}
	b, err := newApplication(&cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, b.queue)
	assert.Same(t, b.queue, b.services.Publish)
	assert.NotNil(t, b.pairing)
}

func TestOpenStores_SQLite(t *testing.T) {
	st, err := openStores(config.StoreConfig{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	n, err := st.users.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, st.close())

	_, err = openStores(config.StoreConfig{Driver: "mongo"})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}
