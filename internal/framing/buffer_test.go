package framing

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"strings"
	"syscall"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader hands out its data in chunks of the given sizes, then EOF.
type chunkReader struct {
	data   []byte
	chunks []int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := len(r.data)
	if len(r.chunks) > 0 {
		n = min(r.chunks[0], n)
		r.chunks = r.chunks[1:]
	}
	n = copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

type result struct {
	line    string
	invalid string
}

// drain reads everything from r through a buffer and returns what Next yielded.
func drain(t *testing.T, b *Buffer, r io.Reader) []result {
	t.Helper()
	var out []result
	for {
		open, err := b.Fill(r)
		require.NoError(t, err)
		for {
			line, err := b.Next()
			if err != nil {
				switch {
				case errors.Is(err, ErrEmptyLine):
					out = append(out, result{invalid: "empty"})
				case errors.Is(err, ErrNullByte):
					out = append(out, result{invalid: "null"})
				default:
					t.Fatalf("unexpected Next error: %v", err)
				}
				continue
			}
			if line == nil {
				break
			}
			out = append(out, result{line: string(line)})
		}
		if !open {
			return out
		}
	}
}

func TestNewRejectsBadCapacity(t *testing.T) {
	for _, c := range []int{0, 256, 511, 513, 1000, 3000} {
		_, err := New(c)
		assert.ErrorIs(t, err, ErrBadCapacity, "capacity %d", c)
	}
	b, err := New(1024)
	require.NoError(t, err)
	assert.Equal(t, 1024, b.Capacity())
}

func TestDefaultCapacityIsPowerOfTwo(t *testing.T) {
	c := DefaultCapacity()
	assert.GreaterOrEqual(t, c, MinCapacity)
	assert.Zero(t, c&(c-1))
}

func TestNextSplitsOnCRAndLF(t *testing.T) {
	b, err := New(512)
	require.NoError(t, err)

	got := drain(t, b, strings.NewReader("PING :a\r\nPING :b\nPING :c\r"))
	assert.Equal(t, []result{
		{line: "PING :a"},
		{invalid: "empty"},
		{line: "PING :b"},
		{line: "PING :c"},
	}, got)
	assert.Equal(t, uint64(3), b.Stats().Lines)
	assert.Equal(t, uint64(1), b.Stats().EmptyLines)
}

func TestNextIncompleteLineWaits(t *testing.T) {
	b, err := New(512)
	require.NoError(t, err)

	open, err := b.Fill(strings.NewReader("PRIVMSG #c :hal"))
	require.NoError(t, err)
	require.True(t, open)

	line, err := b.Next()
	assert.NoError(t, err)
	assert.Nil(t, line)
	assert.Equal(t, 15, b.Buffered())

	_, err = b.Fill(strings.NewReader("f\r\n"))
	require.NoError(t, err)
	line, err = b.Next()
	require.NoError(t, err)
	assert.Equal(t, "PRIVMSG #c :half", string(line))
}

func TestNullByteLineIsSkipped(t *testing.T) {
	b, err := New(512)
	require.NoError(t, err)

	_, err = b.Fill(strings.NewReader("PRIV\x00MSG x\r\nPING :ok\r\n"))
	require.NoError(t, err)

	line, err := b.Next()
	assert.Nil(t, line)
	var nbe *NullByteError
	require.ErrorAs(t, err, &nbe)
	assert.Equal(t, "PRIV\x00MSG x", string(nbe.Line))

	_, err = b.Next()
	assert.ErrorIs(t, err, ErrEmptyLine)

	line, err = b.Next()
	require.NoError(t, err)
	assert.Equal(t, "PING :ok", string(line))
	assert.Equal(t, uint64(1), b.Stats().NullByteLines)
}

func TestFillReportsPeerClose(t *testing.T) {
	b, err := New(512)
	require.NoError(t, err)

	open, err := b.Fill(strings.NewReader(""))
	assert.NoError(t, err)
	assert.False(t, open)
}

func TestFillReportsReadError(t *testing.T) {
	b, err := New(512)
	require.NoError(t, err)

	boom := errors.New("connection reset")
	open, err := b.Fill(iotest.ErrReader(boom))
	assert.False(t, open)
	assert.ErrorIs(t, err, boom)
}

type eintrReader struct {
	left int
	r    io.Reader
}

func (e *eintrReader) Read(p []byte) (int, error) {
	if e.left > 0 {
		e.left--
		return 0, syscall.EINTR
	}
	return e.r.Read(p)
}

func TestFillRetriesOnEINTR(t *testing.T) {
	b, err := New(512)
	require.NoError(t, err)

	open, err := b.Fill(&eintrReader{left: 3, r: strings.NewReader("PING :x\n")})
	require.NoError(t, err)
	assert.True(t, open)
	line, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, "PING :x", string(line))
}

func TestFillFailsWhenFullWithoutTerminator(t *testing.T) {
	b, err := New(512)
	require.NoError(t, err)

	src := bytes.NewReader(bytes.Repeat([]byte{'a'}, 512))
	for b.Buffered() < 512 {
		open, err := b.Fill(src)
		require.NoError(t, err)
		require.True(t, open)
	}
	line, err := b.Next()
	require.NoError(t, err)
	require.Nil(t, line)

	open, err := b.Fill(strings.NewReader("\r\n"))
	assert.False(t, open)
	assert.ErrorIs(t, err, ErrBufferFull)
}

func TestLineOfExactlyCapacityMinusOne(t *testing.T) {
	b, err := New(512)
	require.NoError(t, err)

	body := strings.Repeat("x", 511)
	got := drain(t, b, strings.NewReader(body+"\n"))
	require.Len(t, got, 1)
	assert.Equal(t, body, got[0].line)
}

func TestWraparoundKeepsLinesContiguous(t *testing.T) {
	b, err := New(512)
	require.NoError(t, err)

	// Lines of awkward lengths force start past the half-point many times.
	var in strings.Builder
	var want []result
	for i := range 200 {
		line := strings.Repeat(string(rune('a'+i%26)), 1+(i*37)%400)
		in.WriteString(line)
		in.WriteString("\n")
		want = append(want, result{line: line})
	}

	got := drain(t, b, &chunkReader{data: []byte(in.String()), chunks: []int{300, 511, 7, 129}})
	assert.Equal(t, want, got)
}

func TestChunkingDoesNotChangeOutput(t *testing.T) {
	input := ":nick!user@host PRIVMSG #chan :hello there\r\n" +
		"PING :server123\r\n" +
		"\n\n" +
		"BAD\x00LINE\r\n" +
		strings.Repeat("Z", 480) + "\r\n" +
		":srv 001 bot :Welcome\n" +
		"PING :tail"

	bulk, err := New(512)
	require.NoError(t, err)
	want := drain(t, bulk, strings.NewReader(input))

	oneByte, err := New(512)
	require.NoError(t, err)
	assert.Equal(t, want, drain(t, oneByte, iotest.OneByteReader(strings.NewReader(input))))

	rng := rand.New(rand.NewSource(42))
	for range 50 {
		var chunks []int
		for range 64 {
			chunks = append(chunks, 1+rng.Intn(200))
		}
		b, err := New(512)
		require.NoError(t, err)
		assert.Equal(t, want, drain(t, b, &chunkReader{data: []byte(input), chunks: chunks}))
	}
}
