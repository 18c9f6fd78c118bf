package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/net/html"

	"github.com/jonathan/snappy-feed/internal/dom"
)

const postSelector = `[data-testid="tweetText"]`

const existingFeed = `<html><body><main id="feed">
	<article><div data-testid="tweetText">one</div></article>
	<article><div data-testid="tweetText">two</div></article>
</main></body></html>`

type recorder struct {
	texts []string
}

func (r *recorder) onPost(n *html.Node) {
	r.texts = append(r.texts, dom.Text(n))
}

func newWatcher(t *testing.T, src string, logger *zap.Logger) (*Watcher, *dom.Document, *recorder) {
	t.Helper()
	doc, err := dom.ParseString(src)
	require.NoError(t, err)
	rec := &recorder{}
	return New(doc, postSelector, logger, rec.onPost), doc, rec
}

func TestObserve_ReportsAddedPostsInDocumentOrder(t *testing.T) {
	w, doc, rec := newWatcher(t, existingFeed, zap.NewNop())
	require.NoError(t, w.Observe())
	assert.True(t, w.Observing())

	feed := doc.QueryAll("#feed")[0]
	_, err := doc.AppendHTML(feed, `
		<article><div data-testid="tweetText">three</div></article>
		<article><div data-testid="tweetText">four</div></article>`)
	require.NoError(t, err)

	assert.Equal(t, []string{"three", "four"}, rec.texts)
}

func TestObserve_IgnoresNonElementNodes(t *testing.T) {
	w, doc, rec := newWatcher(t, existingFeed, zap.NewNop())
	require.NoError(t, w.Observe())

	_, err := doc.AppendHTML(doc.Body(), `just some text`)
	require.NoError(t, err)
	assert.Empty(t, rec.texts)
}

func TestObserve_AddedNodeWithoutPosts(t *testing.T) {
	w, doc, rec := newWatcher(t, existingFeed, zap.NewNop())
	require.NoError(t, w.Observe())

	_, err := doc.AppendHTML(doc.Body(), `<aside><p>ad</p></aside>`)
	require.NoError(t, err)
	assert.Empty(t, rec.texts)
}

func TestObserve_TwiceWarns(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w, doc, rec := newWatcher(t, existingFeed, zap.New(core))

	require.NoError(t, w.Observe())
	require.NoError(t, w.Observe())
	assert.Equal(t, 1, logs.FilterMessage("observer is already running").Len())

	_, err := doc.AppendHTML(doc.Body(), `<article><div data-testid="tweetText">x</div></article>`)
	require.NoError(t, err)
	assert.Len(t, rec.texts, 1, "a second Observe must not double-deliver")
}

func TestDisconnect_StopsAndIsIdempotent(t *testing.T) {
	w, doc, rec := newWatcher(t, existingFeed, zap.NewNop())
	require.NoError(t, w.Observe())
	w.Disconnect()
	w.Disconnect()
	assert.False(t, w.Observing())

	_, err := doc.AppendHTML(doc.Body(), `<article><div data-testid="tweetText">late</div></article>`)
	require.NoError(t, err)
	assert.Empty(t, rec.texts)

	require.NoError(t, w.Observe())
	_, err = doc.AppendHTML(doc.Body(), `<article><div data-testid="tweetText">again</div></article>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"again"}, rec.texts)
}

func TestProcessExisting(t *testing.T) {
	w, _, rec := newWatcher(t, existingFeed, zap.NewNop())

	assert.Equal(t, 2, w.ProcessExisting())
	assert.Equal(t, []string{"one", "two"}, rec.texts)
}

func TestObserve_NilDocument(t *testing.T) {
	w := New(nil, postSelector, nil, func(*html.Node) {})
	assert.ErrorIs(t, w.Observe(), ErrNoRoot)
	assert.Equal(t, 0, w.ProcessExisting())
}
