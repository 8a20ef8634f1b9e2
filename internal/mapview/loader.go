// Package mapview drives the interactive shop map: which markers exist, what
// the viewport shows and which info popup is open.
package mapview

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"
)

const defaultScriptBase = "https://maps.googleapis.com/maps/api/js"

var ErrUnavailable = errors.New("map capability unavailable")

// Capability is the loaded map SDK as far as the pages need it.
type Capability struct {
	ScriptURL string
}

// Loader initialises the map capability exactly once.
type Loader struct {
	key  string
	base string

	once sync.Once
	cap  *Capability
	err  error
}

func NewLoader(apiKey string) *Loader {
	return &Loader{key: apiKey, base: defaultScriptBase}
}

// Load returns the capability, initialising it on first call. Later calls
// return the same result.
func (l *Loader) Load(ctx context.Context) (*Capability, error) {
	l.once.Do(func() {
		if err := ctx.Err(); err != nil {
			l.err = err
			return
		}
		if l.key == "" {
			l.err = ErrUnavailable
			log.Warn().Msg("maps API key missing, map disabled")
			return
		}
		q := url.Values{"key": {l.key}}
		l.cap = &Capability{ScriptURL: l.base + "?" + q.Encode()}
		log.Info().Msg("map capability loaded")
	})
	return l.cap, l.err
}
