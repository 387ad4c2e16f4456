// Package api embeds the OpenAPI document of the checklist HTTP surface.
//
// The document is the contract for the chi routes in pkg/adapters/http: it is
// served on GET /openapi.yaml and used at runtime to validate submitted
// checklists before they reach the skill.
package api

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var rawDocument []byte

var load = sync.OnceValues(func() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawDocument)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
})

// Raw returns the document as YAML.
func Raw() []byte {
	return rawDocument
}

// Load parses and validates the embedded document. The result is shared; do not modify it.
func Load() (*openapi3.T, error) {
	return load()
}

// NewRouter matches requests to the operations of the document.
func NewRouter() (routers.Router, error) {
	doc, err := Load()
	if err != nil {
		return nil, err
	}
	return legacy.NewRouter(doc)
}

// MustRouter is like NewRouter but panics if the embedded document is invalid.
func MustRouter() routers.Router {
	router, err := NewRouter()
	if err != nil {
		panic(err)
	}
	return router
}

// Version returns info.version of the document.
func Version() string {
	doc, err := Load()
	if err != nil || doc.Info == nil {
		return "unknown"
	}
	return doc.Info.Version
}
