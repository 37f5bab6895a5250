package catalogue

import (
	"maps"

	"github.com/spheraeng/catalogue-client/internal/jsonval"
)

// FilterTestsByCollection keeps, for each item, only the test references
// whose collection equals discriminator, and drops items left without any.
// Item order and test order are preserved. Inputs are not modified.
func FilterTestsByCollection(items []jsonval.Object, discriminator string) []jsonval.Object {
	out := make([]jsonval.Object, 0, len(items))
	for _, item := range items {
		var kept jsonval.Array
		for _, t := range Tests(item) {
			if t.Collection() == discriminator {
				kept = append(kept, t.Object())
			}
		}
		if len(kept) == 0 {
			continue
		}
		c := maps.Clone(item)
		c["tests"] = kept
		out = append(out, c)
	}
	return out
}

// ProjectAvailableProducts selects the records for countryID whose
// availability is in statuses and returns their products, with each test
// reference replaced by its payload. Records keep their relative order; a
// record without tests yields a product with an empty test list.
func ProjectAvailableProducts(records []jsonval.Object, countryID string, statuses StatusSet) []jsonval.Object {
	out := make([]jsonval.Object, 0, len(records))
	for _, obj := range records {
		rec := AvailabilityRecord{obj: obj}
		if id, ok := rec.CountryID(); !ok || id != countryID {
			continue
		}
		if !statuses.Contains(rec.Availability()) {
			continue
		}

		product := rec.Product()
		payloads := jsonval.Array{}
		for _, t := range Tests(product) {
			if p, ok := t.Payload(); ok {
				payloads = append(payloads, p)
			}
		}

		projected := maps.Clone(product)
		if projected == nil {
			projected = jsonval.Object{}
		}
		projected["tests"] = payloads
		out = append(out, projected)
	}
	return out
}
