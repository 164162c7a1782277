// Package tender defines the record types shared across subsystems.
package tender

import "strconv"

// Record is a tender payload as returned by the remote API. The API is not
// strict about its schema, so records stay opaque string-keyed mappings and
// only the fields the pipeline needs are extracted.
type Record map[string]any

// idFields lists the candidate identifier fields in lookup order.
var idFields = []string{"objectId", "id", "tenderId"}

// ID returns the stable tender identifier, or "" when the record has none.
func (r Record) ID() string {
	return stringField(r, idFields...)
}

// Document is the metadata describing one attachment of a tender.
type Document map[string]any

// FileName returns the display filename, or "" when absent.
func (d Document) FileName() string {
	return stringField(d, "fileName", "name")
}

// DownloadURL returns the raw source locator, or "" when absent.
func (d Document) DownloadURL() string {
	return stringField(d, "url", "downloadUrl", "fileUrl")
}

// ID returns the attachment identifier used by download URL templates,
// or "" when absent.
func (d Document) ID() string {
	return stringField(d, "id", "objectId", "documentId")
}

// stringField returns the first non-empty candidate field rendered as a
// string. Numeric identifiers are common in the wild, so JSON numbers are
// formatted rather than rejected.
func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}
