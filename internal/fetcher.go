package internal

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tanq16/kisame/internal/utils"
)

// ChunkFetcher issues one range request per window against a quirky server
// that reads Range bounds as exclusive and never sends Content-Range.
type ChunkFetcher struct {
	url     string
	client  utils.HTTPDoer
	retries int
}

func NewChunkFetcher(url string, client utils.HTTPDoer, retries int) *ChunkFetcher {
	if retries < 1 {
		retries = 1
	}
	// All windows go to the same server, so keep the connection open
	// across the sequential requests.
	client.SetHeader("Connection", "keep-alive")
	return &ChunkFetcher{url: url, client: client, retries: retries}
}

// Fetch downloads exactly one window, retrying transport failures and
// short/long bodies up to the configured attempt count. Retries never change
// the bytes of a successful fetch, only whether one happens.
func (f *ChunkFetcher) Fetch(window Window) ([]byte, error) {
	log := utils.GetLogger("fetcher").With().Int64("start", window.Start).Int64("length", window.Length).Logger()
	var lastErr error
	for attempt := 0; attempt < f.retries; attempt++ {
		if attempt > 0 {
			log.Debug().Int("attempt", attempt+1).Int("maxRetries", f.retries).Msg("Retrying window")
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond) // Backoff
		}
		chunk, err := f.fetchOnce(window)
		if err == nil {
			return chunk, nil
		}
		log.Debug().Err(err).Int("attempt", attempt+1).Msg("Error fetching window")
		lastErr = err
	}
	return nil, lastErr
}

func (f *ChunkFetcher) fetchOnce(window Window) ([]byte, error) {
	wireStart, wireEnd := window.WireBounds()
	req, err := http.NewRequest("GET", f.url, nil)
	if err != nil {
		return nil, &TransportError{Window: window, Err: err}
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", wireStart, wireEnd))
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{Window: window, Err: err}
	}
	defer resp.Body.Close()
	// The server answers ranges with 206 or sometimes a plain 200; either is
	// fine as long as the body length matches the window.
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Window: window, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Window: window, Err: err}
	}
	if int64(len(body)) != window.Length {
		return nil, &LengthMismatchError{Window: window, Received: int64(len(body))}
	}
	return body, nil
}
