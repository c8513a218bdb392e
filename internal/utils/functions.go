package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var sha256HexRegex = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

func RenewOutputPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	index := 1
	for {
		outputPath = filepath.Join(dir, fmt.Sprintf("%s-(%d)%s", name, index, ext))
		if _, err := os.Stat(outputPath); os.IsNotExist(err) {
			return outputPath
		}
		index++
	}
}

func ParseHeaderArgs(headers []string) map[string]string {
	result := make(map[string]string)
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			result[key] = value
		}
	}
	return result
}

// NormalizeSHA256 validates a hex-encoded SHA-256 digest and lowercases it.
// An empty input is valid and means "no expected digest".
func NormalizeSHA256(digest string) (string, error) {
	if digest == "" {
		return "", nil
	}
	if !sha256HexRegex.MatchString(digest) {
		return "", fmt.Errorf("invalid SHA-256 digest %q: want 64 hex characters", digest)
	}
	return strings.ToLower(digest), nil
}

func ReadDownloadList(filePath string) ([]DownloadEntry, error) {
	log := GetLogger("config")
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading YAML file: %v", err)
	}
	var entries []DownloadEntry
	err = yaml.Unmarshal(data, &entries)
	if err != nil {
		return nil, fmt.Errorf("error parsing YAML file: %v", err)
	}
	for i, entry := range entries {
		if entry.URL == "" {
			return nil, fmt.Errorf("missing link for entry %d", i+1)
		}
		if entry.Size < 0 {
			return nil, fmt.Errorf("negative size for entry %d", i+1)
		}
		if _, err := NormalizeSHA256(entry.SHA256); err != nil {
			return nil, fmt.Errorf("entry %d: %v", i+1, err)
		}
	}
	log.Debug().Int("count", len(entries)).Msg("Entries loaded from YAML")
	return entries, nil
}
