package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonathan/snappy-feed/internal/fetch"
	"github.com/jonathan/snappy-feed/internal/schemas"
)

func TestExtractIDFromText(t *testing.T) {
	svc := New("", nil, zap.NewNop())

	tests := []struct {
		name   string
		text   string
		wantID string
		wantOK bool
	}{
		{"plain url", "https://snappy-frontend.vercel.app/abc123", "abc123", true},
		{"embedded in text", "mint now https://snappy-frontend.vercel.app/mint/xyz789 !!", "xyz789", true},
		{"trailing slash", "http://a.com/one/two/", "two", true},
		{"query ignored", "https://a.com/id42?ref=x", "id42", true},
		{"first url wins", "https://a.com/first https://b.com/second", "first", true},
		{"skips url without path", "https://a.com https://b.com/second", "second", true},
		{"skips url without host", "http:///nohost https://b.com/ok", "ok", true},
		{"no url", "nothing to see here", "", false},
		{"only root path", "https://a.com/", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := svc.ExtractIDFromText(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestIsActionURL(t *testing.T) {
	assert.True(t, IsActionURL("https://a.com/x"))
	assert.True(t, IsActionURL("a.com/x"))
	assert.False(t, IsActionURL("https://a.com"))
	assert.False(t, IsActionURL("https://a.com/"))
	assert.False(t, IsActionURL("http://"))
}

func TestMetadataURL(t *testing.T) {
	svc := New("https://registry.example.com/records/", nil, zap.NewNop())
	assert.Equal(t, "https://registry.example.com/records/abc123.json", svc.MetadataURL("abc123"))
	assert.Equal(t, "https://registry.example.com/records/a%2Fb.json", svc.MetadataURL("a/b"))

	assert.Equal(t, DefaultBaseURL+"/x.json", New("", nil, zap.NewNop()).MetadataURL("x"))
}

func TestGetMetadataByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/abc123.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"contract":"0x1","name":"Snappy","description":"d","image":"i","website":"w","network":"base","abi":[]}`))
	}))
	defer server.Close()

	client := fetch.NewClient(&fetch.Options{RetryAttempts: 1}, zap.NewNop())
	svc := New(server.URL, client, zap.NewNop())

	m, err := svc.GetMetadataByID(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "0x1", m.Contract)
	assert.Equal(t, "Snappy", m.Name)
	assert.Equal(t, "base", m.Network)
}

func TestGetMetadataByID_PropagatesFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := fetch.NewClient(&fetch.Options{RetryAttempts: 2, RetryDelay: 0}, zap.NewNop())
	_, err := New(server.URL, client, zap.NewNop()).GetMetadataByID(context.Background(), "missing")
	require.Error(t, err)

	var fetchErr *fetch.Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestGetMetadataByID_RejectsMistypedRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name": 42}`))
	}))
	defer server.Close()

	client := fetch.NewClient(&fetch.Options{RetryAttempts: 1}, zap.NewNop())
	_, err := New(server.URL, client, zap.NewNop()).GetMetadataByID(context.Background(), "bad")
	require.Error(t, err)

	var ve *schemas.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestGetMetadataByID_EmptyID(t *testing.T) {
	_, err := New("", nil, zap.NewNop()).GetMetadataByID(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyID)
}

type blockingGetter struct {
	calls   int32
	release chan struct{}
}

func (g *blockingGetter) GetJSON(_ context.Context, _ string, out any) error {
	atomic.AddInt32(&g.calls, 1)
	<-g.release
	if m, ok := out.(interface{ UnmarshalJSON([]byte) error }); ok {
		return m.UnmarshalJSON([]byte(`{"name":"shared"}`))
	}
	return errors.New("unexpected target")
}

func TestGetMetadataByID_ConcurrentLookupsShareRequest(t *testing.T) {
	getter := &blockingGetter{release: make(chan struct{})}
	svc := New("https://r.example.com", getter, zap.NewNop())

	const n = 5
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := svc.GetMetadataByID(context.Background(), "same")
			if err == nil {
				results[i] = m.Name
			}
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&getter.calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(getter.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&getter.calls))
	for _, name := range results {
		assert.Equal(t, "shared", name)
	}
}
