package engine

import (
	"promptforge/internal/catalog"
)

// LayerOverrides carries explicit caller intent about individual context
// layers. Explicit intent always wins over the minimization heuristic:
// Include forces a layer in, Exclude forces it out. A layer present in
// both sets is included (force-include is the stronger signal).
type LayerOverrides struct {
	Include map[catalog.LayerID]bool
	Exclude map[catalog.LayerID]bool
}

// LayerSelector applies the Context Minimization rules: only the layers
// a request actually needs, decided by complexity tier and pattern
// category, in the fixed Project, Business, Technical, Feature,
// Constraints order.
type LayerSelector struct {
	catalog *catalog.Catalog
}

// NewLayerSelector creates a selector over the given catalog.
func NewLayerSelector(cat *catalog.Catalog) *LayerSelector {
	return &LayerSelector{catalog: cat}
}

// Select returns the context layers required for the pattern and tier,
// adjusted by any overrides, in fixed layer order. The result may be
// empty (a simple audit needs no context layers at all).
func (s *LayerSelector) Select(pattern *catalog.Pattern, tier catalog.Tier, overrides *LayerOverrides) []*catalog.ContextLayer {
	var selected []*catalog.ContextLayer
	for _, id := range catalog.LayerOrder() {
		layer := s.catalog.Layer(id)
		if layer == nil {
			continue
		}

		include := layer.RequiredFor(tier, pattern.Category)
		if overrides != nil {
			if overrides.Exclude[id] {
				include = false
			}
			if overrides.Include[id] {
				include = true
			}
		}
		if include {
			selected = append(selected, layer)
		}
	}
	return selected
}
