package decoder

import (
	"strings"
)

// preference is a single parsed entry of a PreferredDecoders configuration
// list, e.g. "ogg(vorbis,*,ffmpeg)" or "audio/ogg(vorbis)".
type preference struct {
	// typ is a filename extension when subtype is empty, otherwise a MIME
	// top-level type.
	typ     string
	subtype string
	// names is the ordered list of plugin names this preference resolves
	// to, wildcard already expanded.
	names []string
}

// parsePreference parses one PreferredDecoders entry against the set of
// known plugin names, in registration order. A bare "*" token expands, at
// its position, to every known name not already present in the explicit
// list; duplicates in the explicit list are dropped (first occurrence
// wins).
func parsePreference(spec string, knownNames []string) (preference, bool) {
	open := strings.IndexByte(spec, '(')
	if open < 0 || !strings.HasSuffix(spec, ")") {
		return preference{}, false
	}

	key := spec[:open]
	typ, subtype := splitMIME(key)

	tokens := strings.Split(spec[open+1:len(spec)-1], ",")

	var names []string
	seen := make(map[string]bool, len(tokens))
	asteriskAt := -1

	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if tok == "*" {
			if asteriskAt == -1 {
				asteriskAt = len(names)
			}
			continue
		}

		name := findKnownName(knownNames, tok)
		if name == "" || seen[name] {
			continue
		}
		names = append(names, name)
		seen[name] = true
	}

	if asteriskAt == -1 {
		return preference{typ: typ, subtype: subtype, names: names}, true
	}

	var expanded []string
	expanded = append(expanded, names[:asteriskAt]...)
	for _, n := range knownNames {
		if !seen[n] {
			expanded = append(expanded, n)
		}
	}
	expanded = append(expanded, names[asteriskAt:]...)

	return preference{typ: typ, subtype: subtype, names: expanded}, true
}

func findKnownName(knownNames []string, name string) string {
	for _, n := range knownNames {
		if strings.EqualFold(n, name) {
			return n
		}
	}
	return ""
}

// splitMIME splits a "type/subtype" string into its parts, normalizing the
// subtype the way the original decoder.cc's split_mime does: strip a
// leading "x-" and truncate at a ";" parameter. If s has no '/', typ is the
// whole string and subtype is empty (the extension case).
func splitMIME(s string) (typ, subtype string) {
	i := strings.IndexByte(s, '/')
	if i < 0 {
		return s, ""
	}

	typ = s[:i]
	subtype = s[i+1:]

	if strings.HasPrefix(strings.ToLower(subtype), "x-") {
		subtype = subtype[2:]
	}
	if j := strings.IndexByte(subtype, ';'); j >= 0 {
		subtype = subtype[:j]
	}
	return typ, subtype
}
