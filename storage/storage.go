// Package storage defines persistence for objective evaluations, so
// an optimizer restarted on the same problem doesn't resimulate
// parameter vectors it already paid for.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// Entry is one cached objective evaluation.
type Entry struct {
	// Values are the estimated-parameter values the objective was
	// evaluated at.
	Values map[string]float64 `json:"values"`

	Objective float64 `json:"objective"`
}

// Store persists objective evaluations keyed by parameter vector.
type Store interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error

	// Get returns the cached entry for key, or nil if the key has
	// never been Put.
	Get(ctx context.Context, problem string, key []byte) (*Entry, error)

	Put(ctx context.Context, problem string, key []byte, entry *Entry) error
}

// Key derives a stable cache key from an estimated-parameter vector.
// ids must be in the problem's parameter-table order so the same
// vector always hashes the same way.
func Key(ids []string, x []float64) []byte {
	h := sha256.New()
	var buf [8]byte
	for i, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(x[i]))
		h.Write(buf[:])
	}
	return h.Sum(nil)
}
