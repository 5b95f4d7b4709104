package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threatfeed/internal/domain/entity"
	"threatfeed/internal/infra/feedparser"
	"threatfeed/internal/infra/fetcher"
	fetchUC "threatfeed/internal/usecase/fetch"
)

const rssFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>ISC</title>
<item><title>Scanning for VPN appliances</title><link>https://isc.test/1</link><pubDate>Tue, 10 Mar 2026 08:00:00 GMT</pubDate></item>
<item><title>Second diary</title><link>https://isc.test/2</link><pubDate>Mon, 09 Mar 2026 08:00:00 GMT</pubDate></item>
</channel></rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/good", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFeed))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/garbage", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a feed</html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testSources(base string) []entity.FeedSource {
	return []entity.FeedSource{
		{Name: "Good", URL: base + "/good"},
		{Name: "Down", URL: base + "/down"},
		{Name: "Garbage", URL: base + "/garbage"},
	}
}

func writeFeedsFile(t *testing.T, sources []entity.FeedSource) string {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("feeds:\n")
	for _, s := range sources {
		buf.WriteString("  - name: " + s.Name + "\n    url: " + s.URL + "\n")
	}
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

/* ───────── diagnose ───────── */

func TestDiagnose(t *testing.T) {
	srv := newFeedServer(t)

	cfg := fetcher.DefaultConfig()
	cfg.DenyPrivateIPs = false
	cfg.MaxRetries = 0
	svc := fetchUC.NewService(fetcher.New(cfg), feedparser.New(),
		fetchUC.WithFetchOptions(fetchUC.FetchOptions{Timeout: 5 * time.Second}))

	report, err := diagnose(context.Background(), svc, testSources(srv.URL))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Successful)
	assert.Equal(t, 3, report.Total)
	require.Len(t, report.Results, 3)

	good := report.Results[0]
	assert.True(t, good.OK)
	assert.Equal(t, 2, good.Articles)
	assert.Equal(t, "Scanning for VPN appliances", good.FirstTitle)
	assert.Empty(t, good.Error)

	down := report.Results[1]
	assert.False(t, down.OK)
	assert.Contains(t, down.Error, "feed source unavailable")

	garbage := report.Results[2]
	assert.False(t, garbage.OK)
	assert.NotEmpty(t, garbage.Error)
}

/* ───────── printing ───────── */

func TestPrintReport(t *testing.T) {
	report := Report{
		Results: []SourceResult{
			{Source: "Good", URL: "https://good.test", OK: true, Articles: 2, FirstTitle: "Headline", DurationMS: 120},
			{Source: "Down", URL: "https://down.test", Error: "feed source unavailable: status 500"},
		},
		Successful: 1,
		Total:      2,
		DurationMS: 150,
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printReport(&buf, report, false))

		out := buf.String()
		assert.Contains(t, out, "[OK  ] Good")
		assert.Contains(t, out, "first: Headline")
		assert.Contains(t, out, "[FAIL] Down")
		assert.Contains(t, out, "error: feed source unavailable: status 500")
		assert.Contains(t, out, "1/2 feeds working (150ms)")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, printReport(&buf, report, true))

		var decoded Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, report, decoded)
	})
}

func TestPrintSources(t *testing.T) {
	sources := []entity.FeedSource{{Name: "SANS ISC", URL: "https://isc.sans.edu/rssfeed.xml"}}

	var buf bytes.Buffer
	require.NoError(t, printSources(&buf, sources, false))
	assert.Contains(t, buf.String(), "1 feed sources configured")
	assert.Contains(t, buf.String(), "SANS ISC")

	buf.Reset()
	require.NoError(t, printSources(&buf, sources, true))
	assert.JSONEq(t, `[{"name":"SANS ISC","url":"https://isc.sans.edu/rssfeed.xml"}]`, buf.String())
}

/* ───────── commands ───────── */

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSourcesCommand(t *testing.T) {
	path := writeFeedsFile(t, []entity.FeedSource{
		{Name: "Alpha", URL: "https://alpha.test/feed"},
		{Name: "Beta", URL: "https://beta.test/feed"},
	})

	out, err := execute(t, "sources", "--config", path, "--json")
	require.NoError(t, err)

	var got []entity.FeedSource
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"Alpha", "Beta"}, entity.SourceNames(got))
}

func TestFeedsCommand(t *testing.T) {
	t.Setenv("FEED_DENY_PRIVATE_IPS", "false")
	srv := newFeedServer(t)
	path := writeFeedsFile(t, testSources(srv.URL))

	out, err := execute(t, "feeds", "--config", path, "--json", "--timeout", "5s", "--retries", "0")
	require.NoError(t, err)

	var report Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Successful)
	assert.Equal(t, 3, report.Total)
}

func TestFeedsCommand_InvalidRetries(t *testing.T) {
	path := writeFeedsFile(t, []entity.FeedSource{{Name: "Alpha", URL: "https://alpha.test/feed"}})

	_, err := execute(t, "feeds", "--config", path, "--retries", "50")
	assert.Error(t, err)
}

func TestFeedsCommand_MissingConfig(t *testing.T) {
	_, err := execute(t, "feeds", "--config", "/nonexistent/feeds.yaml")
	assert.Error(t, err)
}
