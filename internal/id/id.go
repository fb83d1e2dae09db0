// Package id provides prefixed ULID generation for sessions and requests.
//
// ULIDs are lexicographically sortable, so session ids double as a creation
// timeline in logs. Prefixes make the id's type obvious when it shows up in a
// log line or a client diagnostic.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies one browser session.
type SessionID string

func (id SessionID) String() string { return string(id) }

const sessionPrefix = "sess"

// Generator generates ULIDs from a guarded entropy source.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator with the given entropy source. Tests can
// pass a deterministic reader.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSessionID generates a new session id.
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(sessionPrefix))
}
