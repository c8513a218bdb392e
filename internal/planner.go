package internal

import "fmt"

// Window is one contiguous byte range planned for a single range request,
// covering [Start, Start+Length) of the remote file.
type Window struct {
	Start  int64
	Length int64
}

// End returns the exclusive logical end offset of the window.
func (w Window) End() int64 {
	return w.Start + w.Length
}

// WireBounds returns the bounds to put in the Range header for this window.
// The server reads "bytes=a-b" as the half-open interval [a, b), not the
// standard inclusive [a, b], so the wire end is Start+Length rather than
// Start+Length-1. Getting this wrong loses or duplicates one byte per window.
func (w Window) WireBounds() (start, end int64) {
	return w.Start, w.Start + w.Length
}

func (w Window) String() string {
	return fmt.Sprintf("[%d, %d)", w.Start, w.End())
}

// PlanWindows partitions [0, totalSize) into ascending, contiguous,
// non-overlapping windows of chunkSize bytes, the last one absorbing the
// remainder. Callers must keep chunkSize > 0 and strictly below the server's
// truncation threshold; the planner has no way to detect the threshold.
func PlanWindows(totalSize int64, chunkSize int64) []Window {
	if totalSize <= 0 {
		return nil
	}
	windows := make([]Window, 0, (totalSize+chunkSize-1)/chunkSize)
	var currentPosition int64 = 0
	for currentPosition < totalSize {
		length := chunkSize
		if currentPosition+length > totalSize {
			length = totalSize - currentPosition
		}
		windows = append(windows, Window{Start: currentPosition, Length: length})
		currentPosition += length
	}
	return windows
}
