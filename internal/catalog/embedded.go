// Embedded default catalog. The rule table under data/ is baked into the
// binary at compile time so the engine works with zero files on disk;
// a file-based catalog can still be supplied to override it.
package catalog

import (
	"embed"
)

//go:embed data/catalog.yaml
var embeddedData embed.FS

// LoadEmbedded parses the catalog baked into the binary. It fails only
// if the embedded data itself violates an invariant, which indicates a
// build defect rather than a runtime condition.
func LoadEmbedded() (*Catalog, error) {
	data, err := embeddedData.ReadFile("data/catalog.yaml")
	if err != nil {
		return nil, &CatalogError{Reason: "read embedded catalog", Err: err}
	}
	return Parse(data)
}
