package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const feedHTML = `<html><body><main>
<article>
	<div data-testid="tweetText">Try https://snappy-frontend.vercel.app/abc123</div>
	<a role="link" href="https://snappy-frontend.vercel.app/abc123">snappy-frontend.vercel.app/abc123</a>
	<time datetime="2024-05-01T10:00:00.000Z">May 1</time>
</article>
<article>
	<div data-testid="tweetText">unrelated</div>
	<a role="link" href="https://example.com/">example.com</a>
	<time datetime="2024-05-01T11:00:00.000Z">May 1</time>
</article>
</main></body></html>`

// execute runs the root command in-process with fresh flag state.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("SNAPPY_RETRY_ATTEMPTS", "1")
	t.Setenv("SNAPPY_RETRY_DELAY_MS", "1")

	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.html")
	require.NoError(t, os.WriteFile(path, []byte(feedHTML), 0644))
	return path
}

func jsonServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}
