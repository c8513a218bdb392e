package internal

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/tanq16/kisame/internal/utils"
)

// Result is the reported outcome of one completed run.
type Result struct {
	Size     int64
	Digest   string
	Expected string
	Outcome  Outcome
}

// Download runs one full retrieval: plan windows, fetch and assemble them
// strictly in order, then verify the digest. The server handles one request
// at a time no matter what the client does, so there is never more than one
// request in flight. The first fetch or assembly failure aborts the run;
// remaining windows are not attempted. progressCh may be nil; when set, the
// byte count of each assembled window is sent and the caller closes it.
func Download(config utils.DownloadConfig, progressCh chan<- int64) (*Result, error) {
	log := utils.GetLogger("downloader")
	if config.Spec.URL == "" {
		return nil, fmt.Errorf("no URL provided")
	}
	if config.Spec.TotalSize < 0 {
		return nil, fmt.Errorf("negative total size %d", config.Spec.TotalSize)
	}
	if config.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}
	expected, err := utils.NormalizeSHA256(config.Spec.ExpectedSHA256)
	if err != nil {
		return nil, err
	}

	windows := PlanWindows(config.Spec.TotalSize, config.ChunkSize)
	log.Debug().Int64("totalSize", config.Spec.TotalSize).Int64("chunkSize", config.ChunkSize).Int("windows", len(windows)).Msg("Planned download windows")

	client := utils.NewKisameHTTPClient(config.HTTPClientConfig)
	fetcher := NewChunkFetcher(config.Spec.URL, client, config.Retries)
	assembler := NewAssembler(config.Spec.TotalSize)

	for _, window := range windows {
		chunk, err := fetcher.Fetch(window)
		if err != nil {
			log.Debug().Err(err).Str("window", window.String()).Msg("Aborting download")
			return nil, err
		}
		if err := assembler.Write(window, chunk); err != nil {
			return nil, err
		}
		if progressCh != nil {
			progressCh <- window.Length
		}
	}

	data, err := assembler.Bytes()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Size:     int64(len(data)),
		Digest:   ComputeDigest(data),
		Expected: expected,
	}
	result.Outcome = CompareDigest(result.Digest, expected)
	if result.Outcome == OutcomeMismatch {
		return result, &DigestMismatchError{Expected: expected, Computed: result.Digest}
	}
	if config.OutputPath != "" {
		if err := os.WriteFile(config.OutputPath, data, 0644); err != nil {
			return result, fmt.Errorf("error writing output file: %v", err)
		}
		log.Debug().Str("output", config.OutputPath).Int64("size", result.Size).Msg("Wrote verified output file")
	}
	return result, nil
}

// BatchDownload runs a list of entries over a small worker pool. Each entry
// is still fetched window-by-window sequentially; only whole downloads run
// in parallel.
func BatchDownload(entries []utils.DownloadEntry, numWorkers int, chunkSize int64, retries int, clientConfig utils.HTTPClientConfig) ([]*Result, error) {
	log := utils.GetLogger("downloader")
	log.Info().Int("totalFiles", len(entries)).Int("workers", numWorkers).Msg("Initiating download")

	progressManager := NewProgressManager()
	progressManager.StartDisplay()
	defer func() {
		progressManager.Stop()
		progressManager.ShowSummary()
	}()

	if numWorkers < 1 {
		numWorkers = 1
	}
	var wg sync.WaitGroup
	results := make([]*Result, len(entries))
	errorCh := make(chan error, len(entries))
	type indexedEntry struct {
		index int
		entry utils.DownloadEntry
	}
	entriesCh := make(chan indexedEntry, len(entries))
	for i, entry := range entries {
		entriesCh <- indexedEntry{index: i, entry: entry}
	}
	close(entriesCh)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			logger := log.With().Int("workerID", workerID).Logger()
			for item := range entriesCh {
				entry := item.entry
				jobID := uuid.New().String()[:8]
				name := entry.OutputPath
				if name == "" {
					name = entry.URL
				}
				logger.Debug().Str("jobID", jobID).Str("name", name).Msg("Worker starting download")

				config := utils.DownloadConfig{
					Spec: utils.DownloadSpec{
						URL:            entry.URL,
						TotalSize:      entry.Size,
						ExpectedSHA256: entry.SHA256,
					},
					OutputPath:       entry.OutputPath,
					ChunkSize:        chunkSize,
					Retries:          retries,
					HTTPClientConfig: clientConfig,
				}
				if entry.ChunkSize > 0 {
					config.ChunkSize = entry.ChunkSize
				}
				progressManager.Register(jobID, name, entry.Size)

				progressCh := make(chan int64)
				var progressWg sync.WaitGroup
				progressWg.Add(1)
				// Internal goroutine to forward progress updates to the manager
				go func(jobID string, progCh <-chan int64) {
					defer progressWg.Done()
					for bytesDownloaded := range progCh {
						progressManager.Update(jobID, bytesDownloaded)
					}
				}(jobID, progressCh)

				result, err := Download(config, progressCh)
				close(progressCh)
				progressWg.Wait()
				results[item.index] = result
				if err != nil {
					logger.Error().Err(err).Str("jobID", jobID).Str("name", name).Msg("Download failed")
					progressManager.ReportError(jobID, err)
					errorCh <- fmt.Errorf("%s: %v", name, err)
					continue
				}
				progressManager.Complete(jobID, result.Size, result.Digest)
			}
		}(i)
	}
	wg.Wait()
	close(errorCh)

	if len(errorCh) > 0 {
		return results, fmt.Errorf("%d of %d downloads failed", len(errorCh), len(entries))
	}
	return results, nil
}
