package directus

import (
	"github.com/spheraeng/catalogue-client/internal/jsonval"
)

// Unwrap returns the payload of a response. Some endpoints wrap their result
// in a {"data": ...} envelope and some return it bare; the envelope is
// removed when a top-level "data" key is present.
func Unwrap(v any) any {
	if obj, ok := jsonval.AsObject(v); ok {
		if data, ok := obj["data"]; ok {
			return data
		}
	}
	return v
}

// errorMessages extracts messages from a {"errors":[{"message":...}]} body.
func errorMessages(body []byte) []string {
	v, err := jsonval.DecodeBytes(body)
	if err != nil {
		return nil
	}
	obj, ok := jsonval.AsObject(v)
	if !ok {
		return nil
	}
	list, ok := jsonval.AsArray(obj["errors"])
	if !ok {
		return nil
	}
	var out []string
	for _, e := range list {
		eo, ok := jsonval.AsObject(e)
		if !ok {
			continue
		}
		if msg, ok := eo["message"].(string); ok && msg != "" {
			out = append(out, msg)
		}
	}
	return out
}
