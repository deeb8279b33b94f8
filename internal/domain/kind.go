package domain

// Kind is a category of tests living in <app>/tests/<kind>
type Kind string

const (
	KindUnit        Kind = "unit"
	KindFunctional  Kind = "functional"
	KindIntegration Kind = "integration"
)

// Kinds lists every kind in the order their paths are collected
var Kinds = []Kind{KindUnit, KindFunctional, KindIntegration}

// OptionName returns the option key of the kind, e.g. "is_unit"
func (k Kind) OptionName() string {
	return "is_" + string(k)
}

// KindOptions holds the requested test kinds
type KindOptions struct {
	IsUnit        bool
	IsFunctional  bool
	IsIntegration bool
}

// Requested reports whether kind was requested
func (o KindOptions) Requested(kind Kind) bool {
	switch kind {
	case KindUnit:
		return o.IsUnit
	case KindFunctional:
		return o.IsFunctional
	case KindIntegration:
		return o.IsIntegration
	}
	return false
}

// Any reports whether at least one kind was requested
func (o KindOptions) Any() bool {
	return o.IsUnit || o.IsFunctional || o.IsIntegration
}

// NeedsDatabase reports whether the requested kinds need a test database.
// Only a run restricted to unit tests goes without one.
func (o KindOptions) NeedsDatabase() bool {
	return !o.IsUnit || o.IsFunctional || o.IsIntegration
}

// Selected returns the requested kinds in collection order
func (o KindOptions) Selected() []Kind {
	var kinds []Kind
	for _, kind := range Kinds {
		if o.Requested(kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Map returns the options keyed by option name
func (o KindOptions) Map() map[string]bool {
	m := make(map[string]bool, len(Kinds))
	for _, kind := range Kinds {
		m[kind.OptionName()] = o.Requested(kind)
	}
	return m
}
