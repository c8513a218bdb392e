package internal

import "fmt"

// Assembler owns the single contiguous buffer for one download, sized exactly
// to the expected total. Windows are written at their planned offsets; the
// buffer is never resized and is handed out only once complete.
type Assembler struct {
	buf     []byte
	written int64
	sealed  bool
}

func NewAssembler(totalSize int64) *Assembler {
	return &Assembler{buf: make([]byte, totalSize)}
}

// Write copies chunk into the buffer at the window's offset. The chunk must
// match the window's length exactly and stay inside the buffer; on any
// violation the buffer is left untouched.
func (a *Assembler) Write(window Window, chunk []byte) error {
	if a.sealed {
		return fmt.Errorf("assembler: buffer already handed over")
	}
	if int64(len(chunk)) != window.Length {
		return &LengthMismatchError{Window: window, Received: int64(len(chunk))}
	}
	if window.Start < 0 || window.End() > int64(len(a.buf)) {
		return fmt.Errorf("assembler: window %s out of bounds for %d-byte buffer", window, len(a.buf))
	}
	copy(a.buf[window.Start:window.End()], chunk)
	a.written += window.Length
	return nil
}

func (a *Assembler) Written() int64 {
	return a.written
}

// IsComplete reports whether every byte of the buffer has been written.
// Windows arrive in order without overlap, so the filled byte count is the
// whole story. A zero-length download is trivially complete.
func (a *Assembler) IsComplete() bool {
	return a.written == int64(len(a.buf))
}

// Bytes hands over the assembled buffer. After a successful call the
// assembler refuses further writes.
func (a *Assembler) Bytes() ([]byte, error) {
	if !a.IsComplete() {
		return nil, &IncompleteAssemblyError{Written: a.written, Total: int64(len(a.buf))}
	}
	a.sealed = true
	return a.buf, nil
}
