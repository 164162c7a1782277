package docfilter

import (
	"fmt"
	"regexp"
	"sort"
)

// kosztorysPattern matches the Polish word "kosztorys" (cost estimate) and
// its inflected variations inside a filename.
var kosztorysPattern = regexp.MustCompile(`(?i)kosztorys[a-ząćęłńóśźż]*`)

var patterns = map[string]*regexp.Regexp{
	"kosztorys": kosztorysPattern,
}

// Pattern returns a registered filename pattern by name.
func Pattern(name string) (*regexp.Regexp, error) {
	p, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown pattern %q, available: %v", name, PatternNames())
	}
	return p, nil
}

// PatternNames lists the registered pattern names, sorted.
func PatternNames() []string {
	names := make([]string, 0, len(patterns))
	for name := range patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
