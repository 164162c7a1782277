package api

import (
	"encoding/json"

	"github.com/mzielin/tender-harvester/internal/tender"
)

// listShape tags the recognized response shapes of listing endpoints.
type listShape int

const (
	// shapePlain is a bare JSON array of records.
	shapePlain listShape = iota
	// shapeWrapped is an object carrying the array under a known key.
	shapeWrapped
	// shapeUnrecognized is anything else; treated as zero records.
	shapeUnrecognized
)

// normalizeList extracts a record list from a response that is either a bare
// array or an object wrapping the array under "data" or one of altKeys
// (tried in order). Unrecognized shapes degrade to an empty list, never an
// error; the caller decides whether that warrants a warning.
func normalizeList(raw json.RawMessage, altKeys ...string) ([]tender.Record, listShape) {
	var plain []tender.Record
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, shapePlain
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, shapeUnrecognized
	}
	keys := append([]string{"data"}, altKeys...)
	for _, key := range keys {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		var records []tender.Record
		if err := json.Unmarshal(inner, &records); err != nil {
			return nil, shapeUnrecognized
		}
		return records, shapeWrapped
	}
	return nil, shapeUnrecognized
}
