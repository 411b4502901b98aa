package builder

import "strings"

// ScopeDict resolves the keyword dictionary for one input file. A key of the
// form "prefix:key" applies as "key" only when input starts with prefix, and
// is dropped otherwise. Scoped entries override plain ones; of two matching
// scoped entries for the same key, the longer prefix wins.
func ScopeDict(dict map[string]string, input string) map[string]string {
	scoped := make(map[string]string, len(dict))
	for k, v := range dict {
		if !strings.Contains(k, ":") {
			scoped[k] = v
		}
	}

	matched := make(map[string]int)
	for k, v := range dict {
		prefix, key, ok := strings.Cut(k, ":")
		if !ok || !strings.HasPrefix(input, prefix) {
			continue
		}
		if n, seen := matched[key]; seen && n > len(prefix) {
			continue
		}
		matched[key] = len(prefix)
		scoped[key] = v
	}
	return scoped
}
