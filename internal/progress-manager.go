package internal

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tanq16/kisame/internal/output"
)

type ProgressInfo struct {
	Name          string
	TotalSize     int64
	Downloaded    int64
	Completed     bool
	CompletedSize int64
	Digest        string
	Failure       string
	StartTime     time.Time
}

type ProgressManager struct {
	progressMap map[string]*ProgressInfo
	mutex       sync.RWMutex
	doneCh      chan struct{}
	numLines    int
}

func NewProgressManager() *ProgressManager {
	return &ProgressManager{
		progressMap: make(map[string]*ProgressInfo),
		doneCh:      make(chan struct{}),
	}
}

// Register tracks a new job under its unique ID; name is only for display,
// so two entries for the same URL never merge their counts.
func (pm *ProgressManager) Register(jobID string, name string, totalSize int64) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	pm.progressMap[jobID] = &ProgressInfo{
		Name:      name,
		TotalSize: totalSize,
		StartTime: time.Now(),
	}
}

func (pm *ProgressManager) Update(jobID string, bytesDownloaded int64) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if info, exists := pm.progressMap[jobID]; exists {
		info.Downloaded += bytesDownloaded
	}
}

func (pm *ProgressManager) Complete(jobID string, totalDownloaded int64, digest string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if info, exists := pm.progressMap[jobID]; exists {
		info.Completed = true
		info.CompletedSize = totalDownloaded
		info.Digest = digest
	}
}

func (pm *ProgressManager) ReportError(jobID string, err error) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if info, exists := pm.progressMap[jobID]; exists {
		info.Completed = true
		info.Failure = fmt.Sprintf("Error: %v", err)
	}
}

func (pm *ProgressManager) StartDisplay() {
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pm.updateDisplay()
			case <-pm.doneCh:
				return
			}
		}
	}()
}

func (pm *ProgressManager) Stop() {
	close(pm.doneCh)
}

// sortedInfos returns the tracked jobs ordered by display name, with the
// job ID as tiebreaker for duplicates. Callers must hold the mutex.
func (pm *ProgressManager) sortedInfos() []*ProgressInfo {
	keys := make([]string, 0, len(pm.progressMap))
	for jobID := range pm.progressMap {
		keys = append(keys, jobID)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := pm.progressMap[keys[i]], pm.progressMap[keys[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return keys[i] < keys[j]
	})
	infos := make([]*ProgressInfo, 0, len(keys))
	for _, jobID := range keys {
		infos = append(infos, pm.progressMap[jobID])
	}
	return infos
}

func (pm *ProgressManager) updateDisplay() {
	// Full lock: numLines is written below and read by ShowSummary.
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if pm.numLines != 0 {
		fmt.Printf("\033[%dA\033[J", pm.numLines)
	}
	lines := 0
	nameWidth := max(output.TerminalWidth()-60, 12)
	for _, info := range pm.sortedInfos() {
		if info.Completed {
			continue
		}
		name := info.Name
		if len(name) > nameWidth {
			name = name[:nameWidth-1] + "…"
		}
		elapsed := time.Since(info.StartTime).Seconds()
		fmt.Printf("%s %s %s %s\n",
			output.ProgressBar(info.Downloaded, info.TotalSize, 30),
			name,
			output.FormatBytes(uint64(info.Downloaded)),
			output.FormatSpeed(info.Downloaded, elapsed))
		lines++
	}
	pm.numLines = lines
}

func (pm *ProgressManager) ShowSummary() {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if pm.numLines != 0 {
		fmt.Printf("\033[%dA\033[J", pm.numLines)
	}
	for _, info := range pm.sortedInfos() {
		if info.Failure != "" {
			output.PrintError(fmt.Sprintf("%s %s %s", output.StyleSymbols["fail"], info.Name, info.Failure))
			continue
		}
		output.PrintSuccess(fmt.Sprintf("%s %s (%s)", output.StyleSymbols["pass"], info.Name, output.FormatBytes(uint64(info.CompletedSize))))
		if info.Digest != "" {
			output.PrintDetail(fmt.Sprintf("  sha256: %s", info.Digest))
		}
	}
}
