// Package catalogue queries the product and test catalogue and reshapes the
// nested test results it returns.
//
// Catalogue items and products carry a "tests" array of test references.
// Each reference is tagged by its "collection" discriminator and carries a
// payload whose schema depends on that discriminator, so records are kept as
// untyped JSON objects and read through small accessor views.
package catalogue

import (
	"slices"
	"strings"

	"github.com/spheraeng/catalogue-client/internal/jsonval"
)

// Remote collections.
const (
	GlobalCatalogue       = "global_catalogue"
	AvailabilityByCountry = "availability_by_country"
)

// Test collection discriminators as stored on test references.
const (
	CollectionEN14651   = "EN_14651_test"
	CollectionASTMC1609 = "ASTM_C1609_test"
)

// Relation fields holding test payloads on products.
const (
	RelationEN14651   = "en_14651_test"
	RelationASTMC1609 = "astm_c1609_test"
)

// Availability statuses.
const (
	StatusAvailable            = "Available"
	StatusAvailableUponRequest = "Available Upon Request"
	StatusNotAvailable         = "Not Available"
)

// StatusSet is a set of availability statuses.
type StatusSet map[string]struct{}

// NewStatusSet returns a set holding statuses.
func NewStatusSet(statuses ...string) StatusSet {
	s := make(StatusSet, len(statuses))
	for _, st := range statuses {
		s[st] = struct{}{}
	}
	return s
}

// Contains reports whether status is in the set.
func (s StatusSet) Contains(status string) bool {
	_, ok := s[status]
	return ok
}

// Values returns the statuses in sorted order.
func (s StatusSet) Values() []string {
	out := make([]string, 0, len(s))
	for st := range s {
		out = append(out, st)
	}
	slices.Sort(out)
	return out
}

// TestReference is a view over one element of a "tests" array.
type TestReference struct {
	obj jsonval.Object
}

// Collection returns the discriminator.
func (t TestReference) Collection() string {
	s, _ := t.obj["collection"].(string)
	return s
}

// Payload returns the discriminator-specific test data. An expanded object
// wins over a bare foreign key: the relation field named after the
// discriminator is preferred, then "item". Scalar values are returned only
// when no object is available.
func (t TestReference) Payload() (any, bool) {
	candidates := []any{}
	if c := t.Collection(); c != "" {
		candidates = append(candidates, t.obj[c], t.obj[strings.ToLower(c)])
	}
	candidates = append(candidates, t.obj["item"])

	for _, v := range candidates {
		if obj, ok := jsonval.AsObject(v); ok {
			return obj, true
		}
	}
	for _, v := range candidates {
		if v != nil {
			return v, true
		}
	}
	return nil, false
}

// Object returns the underlying reference object.
func (t TestReference) Object() jsonval.Object {
	return t.obj
}

// Tests returns the test references of an item or product. An absent or
// null "tests" field yields no references; elements that are not objects
// are skipped.
func Tests(item jsonval.Object) []TestReference {
	arr, ok := jsonval.AsArray(item["tests"])
	if !ok {
		return nil
	}
	var out []TestReference
	for _, v := range arr {
		if obj, ok := jsonval.AsObject(v); ok {
			out = append(out, TestReference{obj: obj})
		}
	}
	return out
}

// AvailabilityRecord is a view over an availability_by_country entry.
type AvailabilityRecord struct {
	obj jsonval.Object
}

// CountryID returns the country identifier. Expanded country relations are
// identified by their "id" field.
func (r AvailabilityRecord) CountryID() (string, bool) {
	v := r.obj["country_id"]
	if obj, ok := jsonval.AsObject(v); ok {
		v = obj["id"]
	}
	return jsonval.Text(v)
}

// Availability returns the availability status.
func (r AvailabilityRecord) Availability() string {
	s, _ := r.obj["availability"].(string)
	return s
}

// Product returns the referenced product, or nil when it was not fetched.
func (r AvailabilityRecord) Product() jsonval.Object {
	p, _ := jsonval.AsObject(r.obj["product"])
	return p
}

// Records normalizes an unwrapped response into a list of objects. A single
// object becomes a one-element list; non-object array elements are dropped.
func Records(v any) []jsonval.Object {
	switch v := v.(type) {
	case jsonval.Array:
		out := make([]jsonval.Object, 0, len(v))
		for _, e := range v {
			if obj, ok := jsonval.AsObject(e); ok {
				out = append(out, obj)
			}
		}
		return out
	case jsonval.Object:
		return []jsonval.Object{v}
	default:
		return nil
	}
}
