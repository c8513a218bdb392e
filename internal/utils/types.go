package utils

import "time"

// DownloadSpec is the contract input for one retrieval: where to fetch from,
// how many bytes the server holds, and optionally the digest the assembled
// bytes must hash to.
type DownloadSpec struct {
	URL            string
	TotalSize      int64
	ExpectedSHA256 string // lowercase hex, empty when no digest was provided
}

type DownloadConfig struct {
	Spec             DownloadSpec
	OutputPath       string
	ChunkSize        int64
	Retries          int
	HTTPClientConfig HTTPClientConfig
}

// DownloadEntry is a single job in a YAML batch list.
type DownloadEntry struct {
	URL        string `yaml:"link"`
	Size       int64  `yaml:"size"`
	SHA256     string `yaml:"sha256"`
	ChunkSize  int64  `yaml:"chunk_size"`
	OutputPath string `yaml:"op"`
}

type HTTPClientConfig struct {
	Timeout       time.Duration
	KATimeout     time.Duration
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	UserAgent     string
	Headers       map[string]string
}
