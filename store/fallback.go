package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/quotaflow/quota-engine/core"
)

// Fallback wraps a Persistence and, when a Save fails, writes the state to a
// JSON file instead so the data survives a database outage. Exactly one
// fallback write is attempted per failed Save; the original error is returned
// either way so callers know the primary store is degraded.
type Fallback struct {
	primary core.Persistence
	path    string
	log     zerolog.Logger
}

// NewFallback wraps primary with a JSON-file escape hatch at path.
func NewFallback(primary core.Persistence, path string, log zerolog.Logger) *Fallback {
	return &Fallback{primary: primary, path: path, log: log}
}

func (f *Fallback) Load(ctx context.Context) (core.State, bool, error) {
	return f.primary.Load(ctx)
}

func (f *Fallback) Save(ctx context.Context, state core.State) error {
	err := f.primary.Save(ctx, state)
	if err == nil {
		return nil
	}

	f.log.Error().Err(err).Msg("primary save failed, writing fallback file")
	if ferr := f.writeFile(state); ferr != nil {
		f.log.Error().Err(ferr).Str("path", f.path).Msg("fallback write failed")
		return fmt.Errorf("%w: save failed and fallback failed: %v", core.ErrPersistence, err)
	}
	f.log.Warn().Str("path", f.path).Msg("state written to fallback file")
	return err
}

func (f *Fallback) writeFile(state core.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
