// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"strings"

	"github.com/flowforge/flowforge/pkg/store"
	"github.com/flowforge/flowforge/pkg/store/engine"
	"github.com/flowforge/flowforge/pkg/store/file"
)

// NewStore builds a workflow store from a URL. http(s):// targets the
// remote automation engine; anything else is treated as a local file root.
func NewStore(storeURL string) (store.Store, error) {
	if strings.HasPrefix(storeURL, "http://") || strings.HasPrefix(storeURL, "https://") {
		return engine.NewStore(storeURL), nil
	}

	return file.NewStore(storeURL)
}
