package storage

import (
	"context"
	"encoding/json"

	"github.com/davidzamora9aSyC/contador/model"
)

// Store persists the whole multi-site state as one JSON document. Load returns
// the raw document so the stats normalizer can migrate any historical shape;
// a nil document with a nil error means nothing has been persisted yet.
type Store interface {
	Load(ctx context.Context) (json.RawMessage, error)
	Save(ctx context.Context, state *model.StateFile) error
	Ping(ctx context.Context) error
}
