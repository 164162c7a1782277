package cmd

import (
	"fmt"
	"os"
	"strings"
)

// collectTenderIDs merges ids given on the command line with ids read from
// an optional file. Inline values may be comma separated; the file holds one
// id per line with '#' comments. Order is preserved, duplicates dropped.
func collectTenderIDs(inline []string, idsFile string) ([]string, error) {
	var raw []string
	for _, v := range inline {
		raw = append(raw, strings.Split(v, ",")...)
	}

	if idsFile != "" {
		data, err := os.ReadFile(idsFile)
		if err != nil {
			return nil, fmt.Errorf("read ids file: %w", err)
		}
		raw = append(raw, strings.Split(string(data), "\n")...)
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
