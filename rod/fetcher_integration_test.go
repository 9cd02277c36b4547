//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyscout"
	"policyscout/goquery"
	"policyscout/rod"
)

// These tests launch a real headless Chrome and are gated behind the
// integration build tag.

func TestFetcher_renders_javascript_gated_policy(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Privacy</title></head>
<body>
<main id="content">Loading...</main>
<script>
document.getElementById('content').textContent =
  'This privacy policy describes the information we collect and how we use it. ' +
  'We collect personal data such as your name, email address, and usage logs. ' +
  'You have the right to access, correct, and delete your personal information.';
</script>
</body>
</html>`))
	}))
	defer srv.Close()

	f := rod.NewFetcher(goquery.NewExtractor())
	defer f.Close()

	got := f.Fetch(context.Background(), policyscout.CandidateURL{URL: srv.URL + "/privacy"})

	require.Equal(t, policyscout.StatusSuccess, got.Status)
	assert.Contains(t, got.Text, "information we collect")
	assert.NotContains(t, got.Text, "Loading...")
}

func TestFetcher_classifies_deadline_as_timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {} // never respond
	}))
	defer srv.Close()

	f := rod.NewFetcher(goquery.NewExtractor())
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	got := f.Fetch(ctx, policyscout.CandidateURL{URL: srv.URL + "/privacy"})

	assert.Equal(t, policyscout.StatusTimeout, got.Status)
}

func TestFetcher_unreachable_host_is_network_error(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	f := rod.NewFetcher(goquery.NewExtractor())
	defer f.Close()

	got := f.Fetch(context.Background(), policyscout.CandidateURL{URL: addr + "/privacy"})

	assert.Equal(t, policyscout.StatusNetworkError, got.Status)
}
