package catalog

import "regexp"

// idPattern matches "<digits>.vpk" optionally preceded by "<prefix>_".
var idPattern = regexp.MustCompile(`^(?:.*_)?(\d+)\.vpk$`)

// ExtractID returns the workshop id encoded in a package file name.
func ExtractID(filename string) (string, bool) {
	m := idPattern.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractIDs returns the distinct workshop ids of filenames in first-seen
// order. Names without an id are skipped.
func ExtractIDs(filenames []string) []string {
	seen := make(map[string]struct{}, len(filenames))
	var ids []string

	for _, name := range filenames {
		id, ok := ExtractID(name)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids
}
