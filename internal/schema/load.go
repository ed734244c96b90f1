package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue/cuecontext"
)

//go:embed catalog.cue
var catalogCUE []byte

// catalogDoc mirrors the top-level shape of catalog.cue for decoding.
type catalogDoc struct {
	Entities []EntitySchema `json:"entities"`
}

// Load compiles the embedded CUE catalog, decodes it into a Registry, and
// runs the startup invariant checks. Any violation is a startup error, not
// a runtime surprise.
func Load() (*Registry, error) {
	ctx := cuecontext.New()
	val := ctx.CompileBytes(catalogCUE)
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("compiling catalog: %w", err)
	}

	var doc catalogDoc
	if err := val.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if len(doc.Entities) == 0 {
		return nil, fmt.Errorf("catalog declares no entities")
	}

	reg := NewRegistry()
	for i := range doc.Entities {
		reg.Register(&doc.Entities[i])
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	return reg, nil
}
