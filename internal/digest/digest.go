// Package digest fingerprints response bodies while they are decoded so
// that repeated polls of an unchanged listing can be recognised.
package digest

import (
	"io"

	"github.com/cespare/xxhash/v2"
)

// Reader hashes and counts every byte read through it.
type Reader struct {
	r io.Reader
	h *xxhash.Digest
	n int64
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, h: xxhash.New()}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		_, _ = r.h.Write(p[:n])
		r.n += int64(n)
	}
	return n, err
}

// Sum64 returns the hash of the bytes read so far.
func (r *Reader) Sum64() uint64 {
	return r.h.Sum64()
}

// N returns the number of bytes read so far.
func (r *Reader) N() int64 {
	return r.n
}

// Tracker remembers the last digest seen per document.
type Tracker struct {
	last map[string]uint64
}

func NewTracker() *Tracker {
	return &Tracker{last: make(map[string]uint64)}
}

// Observe records sum for document and reports whether it differs from the
// previous observation. The first observation is always a change.
func (t *Tracker) Observe(document string, sum uint64) bool {
	prev, seen := t.last[document]
	t.last[document] = sum
	return !seen || prev != sum
}
