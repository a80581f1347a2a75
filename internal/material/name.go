package material

import (
	"regexp"
	"strings"
)

var (
	reservedChars = regexp.MustCompile(`[\[\]\.:/]`)
	whitespace    = regexp.MustCompile(`\s`)
	copySuffix    = regexp.MustCompile(`\d{3}$`)
)

// SanitizeNodeName rewrites a glTF node name the way web scene loaders do:
// whitespace becomes '_' and the characters [ ] . : / are removed. Exporters
// that name copies "Leaf.001" therefore yield "Leaf001".
func SanitizeNodeName(name string) string {
	return reservedChars.ReplaceAllString(whitespace.ReplaceAllString(name, "_"), "")
}

// NormalizeMeshName returns the registry key of a mesh: the trailing three
// digit copy suffix is stripped and underscores become spaces.
func NormalizeMeshName(name string) string {
	name = copySuffix.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, "_", " ")
}
