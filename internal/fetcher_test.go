package internal

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tanq16/kisame/internal/utils"
)

// quirkHandler mimics the broken server: Range bounds are read as the
// half-open interval [a, b), Content-Range is never sent, and any single
// body is silently cut off at truncateAt bytes.
type quirkHandler struct {
	data       []byte
	truncateAt int64 // 0 means no truncation
	failures   int   // number of leading requests answered with 500

	mu          sync.Mutex
	ranges      []string // raw Range header values, in order
	connections []string // Connection header values, in order
}

func (q *quirkHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rangeHeader := r.Header.Get("Range")
	q.mu.Lock()
	q.ranges = append(q.ranges, rangeHeader)
	q.connections = append(q.connections, r.Header.Get("Connection"))
	fail := q.failures > 0
	if fail {
		q.failures--
	}
	q.mu.Unlock()
	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	body := q.data
	status := http.StatusOK
	if rangeHeader != "" {
		spec := strings.TrimPrefix(rangeHeader, "bytes=")
		parts := strings.SplitN(spec, "-", 2)
		start, _ := strconv.ParseInt(parts[0], 10, 64)
		end, _ := strconv.ParseInt(parts[1], 10, 64)
		if end > int64(len(q.data)) {
			end = int64(len(q.data))
		}
		if start < 0 || start > end {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		body = q.data[start:end] // exclusive end, unlike real HTTP
		status = http.StatusPartialContent
	}
	if q.truncateAt > 0 && int64(len(body)) > q.truncateAt {
		body = body[:q.truncateAt]
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}

func (q *quirkHandler) seenRanges() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.ranges...)
}

func (q *quirkHandler) seenConnections() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.connections...)
}

func newQuirkServer(t *testing.T, handler *quirkHandler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func testClient() utils.HTTPDoer {
	return utils.NewKisameHTTPClient(utils.HTTPClientConfig{Timeout: 10 * time.Second})
}

func TestFetcherFetch(t *testing.T) {
	data := randomData(t, 1000)
	handler := &quirkHandler{data: data}
	server := newQuirkServer(t, handler)

	fetcher := NewChunkFetcher(server.URL, testClient(), 1)
	chunk, err := fetcher.Fetch(Window{Start: 100, Length: 200})
	require.NoError(t, err)
	require.Equal(t, data[100:300], chunk)

	// The wire end must be the exclusive bound, one past what a compliant
	// server would expect.
	require.Equal(t, []string{"bytes=100-300"}, handler.seenRanges())
	require.Equal(t, []string{"keep-alive"}, handler.seenConnections())
}

func TestFetcherTruncatedBody(t *testing.T) {
	data := randomData(t, 70000)
	handler := &quirkHandler{data: data, truncateAt: 65536}
	server := newQuirkServer(t, handler)

	fetcher := NewChunkFetcher(server.URL, testClient(), 1)
	window := Window{Start: 0, Length: 70000}
	_, err := fetcher.Fetch(window)

	var mismatch *LengthMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, window, mismatch.Window)
	require.Equal(t, int64(65536), mismatch.Received)
}

func TestFetcherBelowThresholdAvoidsTruncation(t *testing.T) {
	data := randomData(t, 70000)
	handler := &quirkHandler{data: data, truncateAt: 65536}
	server := newQuirkServer(t, handler)

	fetcher := NewChunkFetcher(server.URL, testClient(), 1)
	chunk, err := fetcher.Fetch(Window{Start: 0, Length: 65000})
	require.NoError(t, err)
	require.Equal(t, data[:65000], chunk)
}

func TestFetcherServerError(t *testing.T) {
	handler := &quirkHandler{data: randomData(t, 100), failures: 100}
	server := newQuirkServer(t, handler)

	fetcher := NewChunkFetcher(server.URL, testClient(), 1)
	_, err := fetcher.Fetch(Window{Start: 0, Length: 100})

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	require.Equal(t, http.StatusInternalServerError, transport.Status)
}

func TestFetcherRetryThenSucceed(t *testing.T) {
	data := randomData(t, 100)
	handler := &quirkHandler{data: data, failures: 2}
	server := newQuirkServer(t, handler)

	fetcher := NewChunkFetcher(server.URL, testClient(), 5)
	chunk, err := fetcher.Fetch(Window{Start: 0, Length: 100})
	require.NoError(t, err)
	require.Equal(t, data, chunk)
	require.Len(t, handler.seenRanges(), 3)
}

func TestFetcherConnectionFailure(t *testing.T) {
	server := newQuirkServer(t, &quirkHandler{data: randomData(t, 100)})
	url := server.URL
	server.Close()

	fetcher := NewChunkFetcher(url, testClient(), 1)
	_, err := fetcher.Fetch(Window{Start: 0, Length: 100})

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	require.Equal(t, 0, transport.Status)
	require.Error(t, transport.Unwrap())
}
