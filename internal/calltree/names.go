package calltree

import (
	"path"
	"strings"
)

// separators returns the positions of c in name outside of type parameter
// lists, which may contain dots and slashes of their own.
func separators(name string, c byte) []int {
	var (
		depth     int
		positions []int
	)
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case c:
			if depth == 0 {
				positions = append(positions, i)
			}
		}
	}
	return positions
}

// trimImportPath removes the import path in front of the package name of a
// qualified Go function name: github.com/a/b/pkg.(*T).M becomes pkg.(*T).M.
func trimImportPath(name string) string {
	if slashes := separators(name, '/'); len(slashes) > 0 {
		return name[slashes[len(slashes)-1]+1:]
	}
	return name
}

// ShortName returns the unqualified function name, the last dotted segment.
func ShortName(name string) string {
	name = trimImportPath(name)
	if dots := separators(name, '.'); len(dots) > 0 {
		return name[dots[len(dots)-1]+1:]
	}
	return name
}

// LabelName keeps the last two dotted segments of the name when available.
func LabelName(name string) string {
	name = trimImportPath(name)
	if dots := separators(name, '.'); len(dots) > 1 {
		return name[dots[len(dots)-2]+1:]
	}
	return name
}

// FileBaseName returns the last path element of a source file, whatever the
// separator used by the platform that produced it.
func FileBaseName(file string) string {
	if file == "" {
		return ""
	}
	return path.Base(strings.ReplaceAll(file, "\\", "/"))
}
