package internal

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomData(t *testing.T, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	_, err := rand.New(rand.NewSource(42)).Read(data)
	require.NoError(t, err)
	return data
}

func TestAssemblerRoundTrip(t *testing.T) {
	source := randomData(t, 646863)
	windows := PlanWindows(int64(len(source)), 65000)
	assembler := NewAssembler(int64(len(source)))

	for _, w := range windows {
		require.False(t, assembler.IsComplete())
		err := assembler.Write(w, source[w.Start:w.End()])
		require.NoError(t, err)
	}
	require.True(t, assembler.IsComplete())
	assembled, err := assembler.Bytes()
	require.NoError(t, err)
	require.True(t, bytes.Equal(source, assembled), "assembled buffer must be bit-identical to the source")
}

func TestAssemblerLengthMismatch(t *testing.T) {
	assembler := NewAssembler(100)
	w := Window{Start: 0, Length: 50}

	err := assembler.Write(w, make([]byte, 49))
	var mismatch *LengthMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, w, mismatch.Window)
	require.Equal(t, int64(49), mismatch.Received)
	require.Equal(t, int64(0), assembler.Written(), "failed write must not mutate the buffer")

	err = assembler.Write(w, make([]byte, 51))
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, int64(51), mismatch.Received)
	require.Equal(t, int64(0), assembler.Written())
}

func TestAssemblerOutOfBounds(t *testing.T) {
	assembler := NewAssembler(100)
	err := assembler.Write(Window{Start: 60, Length: 50}, make([]byte, 50))
	require.Error(t, err)
	require.Equal(t, int64(0), assembler.Written())
}

func TestAssemblerIncomplete(t *testing.T) {
	assembler := NewAssembler(100)
	require.NoError(t, assembler.Write(Window{Start: 0, Length: 50}, make([]byte, 50)))
	require.False(t, assembler.IsComplete())

	_, err := assembler.Bytes()
	var incomplete *IncompleteAssemblyError
	require.ErrorAs(t, err, &incomplete)
	require.Equal(t, int64(50), incomplete.Written)
	require.Equal(t, int64(100), incomplete.Total)
}

func TestAssemblerZeroLength(t *testing.T) {
	assembler := NewAssembler(0)
	require.True(t, assembler.IsComplete())
	assembled, err := assembler.Bytes()
	require.NoError(t, err)
	require.Empty(t, assembled)
}

func TestAssemblerSealedAfterHandover(t *testing.T) {
	assembler := NewAssembler(10)
	require.NoError(t, assembler.Write(Window{Start: 0, Length: 10}, make([]byte, 10)))
	_, err := assembler.Bytes()
	require.NoError(t, err)
	require.Error(t, assembler.Write(Window{Start: 0, Length: 10}, make([]byte, 10)))
}
