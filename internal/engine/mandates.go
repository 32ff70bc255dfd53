package engine

import (
	"promptforge/internal/catalog"
)

// MandateResolver maps a request's declared feature types to the
// constitutional commandments that must be injected into the security
// slot of the assembled prompt.
type MandateResolver struct {
	catalog *catalog.Catalog
}

// NewMandateResolver creates a resolver over the given catalog.
func NewMandateResolver(cat *catalog.Catalog) *MandateResolver {
	return &MandateResolver{catalog: cat}
}

// Resolve returns the commandments whose feature tags intersect the
// given feature types, in ascending commandment id order (I through X).
// Always-tagged commandments resolve for every request, so the result is
// never empty — even for an empty feature type set.
func (r *MandateResolver) Resolve(featureTypes []catalog.FeatureTag) []*catalog.Commandment {
	tags := make(map[catalog.FeatureTag]bool, len(featureTypes))
	for _, t := range featureTypes {
		tags[t] = true
	}

	// Commandments() is id-ordered, which keeps the result
	// deduplicated and ordered without an extra sort.
	var resolved []*catalog.Commandment
	for _, cmd := range r.catalog.Commandments() {
		if cmd.AppliesTo(tags) {
			resolved = append(resolved, cmd)
		}
	}
	return resolved
}
