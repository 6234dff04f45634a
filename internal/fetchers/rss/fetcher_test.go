package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/riskwatch/pkg/errors"
)

func rssBody(items ...[2]string) string {
	body := `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>test feed</title>`
	for _, it := range items {
		body += fmt.Sprintf("<item><title>%s</title><description>%s</description></item>", it[0], it[1])
	}
	return body + "</channel></rss>"
}

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchFiltersByAttribute(t *testing.T) {
	server := serveFeed(t, rssBody(
		[2]string{"Port strike hits Ruritania", "Dockworkers walk out"},
		[2]string{"Borduria election results", "No mention of the attribute"},
		[2]string{"Weather report", "Flooding expected in Ruritania lowlands"},
	))

	f, err := New([]string{server.URL}, 2*time.Second, nil)
	require.NoError(t, err)

	cs, err := f.Fetch(context.Background(), "Ruritania")
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "Port strike hits Ruritania", cs[0].Headline)
	assert.Equal(t, "rss", cs[0].SourceTag)
	assert.Equal(t, "Weather report", cs[1].Headline)
}

func TestFetchAttributeWordBoundary(t *testing.T) {
	server := serveFeed(t, rssBody(
		[2]string{"Ruritanian markets rally", "suffix form must not match"},
		[2]string{"Ruritania markets rally", "exact word matches"},
	))

	f, err := New([]string{server.URL}, 2*time.Second, nil)
	require.NoError(t, err)

	cs, err := f.Fetch(context.Background(), "Ruritania")
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "Ruritania markets rally", cs[0].Headline)
}

func TestFetchSkipsBrokenFeed(t *testing.T) {
	broken := serveFeed(t, "not xml at all")
	good := serveFeed(t, rssBody([2]string{"Strike in Ruritania", ""}))

	f, err := New([]string{broken.URL, good.URL}, 2*time.Second, nil)
	require.NoError(t, err)

	cs, err := f.Fetch(context.Background(), "Ruritania")
	require.NoError(t, err)
	assert.Len(t, cs, 1)
}

func TestFetchAllFeedsBroken(t *testing.T) {
	broken := serveFeed(t, "not xml")
	f, err := New([]string{broken.URL}, 2*time.Second, nil)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), "Ruritania")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFeedParseFailed))
}

func TestNewRequiresFeeds(t *testing.T) {
	_, err := New(nil, time.Second, nil)
	assert.Error(t, err)
}
