// Package tokencount implements L4: a minimal token-counting capability the
// chunker depends on through an interface only, never on a tokenizer vendor
// library directly — this breaks the chunker -> tokenizer dependency cycle
// the distillation source is prone to.
package tokencount

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens in text under some named encoding.
type Counter interface {
	Count(text string) int
}

// approx is the chars-per-token fallback used when no real tokenizer is
// available. It guarantees forward progress without the vendor library.
const approx = 4

type fallbackCounter struct{}

func (fallbackCounter) Count(text string) int {
	return len(text) / approx
}

// cl100kCounter wraps tiktoken-go's cl100k_base encoding, built once and
// shared across goroutines (the BPE merge-rank tables are read-only after
// construction).
type cl100kCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *cl100kCounter) Count(text string) int {
	if c.enc == nil {
		return fallbackCounter{}.Count(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

var (
	once    sync.Once
	shared  Counter
	warning error
)

// New returns the process-wide cl100k_base counter, falling back permanently
// to the chars/4 approximation if the encoding tables could not be loaded
// (e.g. no network access and no cached copy). The fallback never fails a
// call, matching the distillation's own exception-swallowing behavior.
func New() Counter {
	once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			warning = err
			shared = fallbackCounter{}
			return
		}
		shared = &cl100kCounter{enc: enc}
	})
	return shared
}

// LoadWarning returns the error encountered building the real tokenizer, if
// the fallback is currently in effect. Callers may log this once at startup.
func LoadWarning() error { return warning }

// Fallback exposes the chars/4 approximation directly, useful for hermetic
// unit tests that must not depend on network access to fetch BPE tables.
func Fallback() Counter { return fallbackCounter{} }
