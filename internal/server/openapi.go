package server

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var contractSpec []byte

// loadContract parses and validates the embedded contract document and
// returns its JSON rendering for the /openapi.json endpoint. Validation
// runs at startup so a malformed document fails the boot, not a request.
func loadContract(ctx context.Context) (*openapi3.T, []byte, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(contractSpec)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse contract document: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, nil, fmt.Errorf("contract document is invalid: %w", err)
	}

	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize contract document: %w", err)
	}

	return doc, raw, nil
}
