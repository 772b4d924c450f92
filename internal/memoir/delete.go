package memoir

import (
	"os"
	"path/filepath"
	"strings"
)

// resolveForDelete finds the file backing key, trying the bijective mapping
// first, then a literal-trailing-dot variant, then a prefix/contains scan of
// the parent directory. Returns ("", "", nil) if nothing matches.
func (m *Memoir) resolveForDelete(key string) (absPath, relPath string, err error) {
	if rel, kerr := keyToRelPath(key); kerr == nil {
		abs, rerr := resolveUnderRoot(m.root, rel)
		if rerr == nil {
			if _, statErr := os.Stat(abs); statErr == nil {
				return abs, rel, nil
			}
		}
	}

	if rel, ok := literalTrailingDotPath(key); ok {
		abs, rerr := resolveUnderRoot(m.root, rel)
		if rerr == nil {
			if _, statErr := os.Stat(abs); statErr == nil {
				return abs, rel, nil
			}
		}
	}

	abs, rel := m.scanParentForMatch(key)
	return abs, rel, nil
}

// literalTrailingDotPath handles a key with a trailing "." by treating the
// dot as a literal filename character instead of a segment separator, e.g.
// "notes.v2." -> "notes/v2..md" rather than an invalid empty final segment.
func literalTrailingDotPath(key string) (string, bool) {
	if !strings.HasSuffix(key, ".") {
		return "", false
	}
	trimmed := strings.TrimRight(key, ".")
	trailing := key[len(trimmed):]
	if trimmed == "" {
		return "", false
	}

	segs := strings.Split(trimmed, ".")
	for _, seg := range segs {
		if seg == "" || seg == ".." || strings.ContainsAny(seg, "/\\") {
			return "", false
		}
	}

	dir := filepath.Join(segs[:len(segs)-1]...)
	file := segs[len(segs)-1] + trailing + ".md"
	if dir == "" {
		return file, true
	}
	return filepath.Join(dir, file), true
}

// scanParentForMatch looks in the directory key's parent segments resolve to
// for a file whose name contains or is prefixed by the key's final segment.
// The first match, in directory read order, wins.
func (m *Memoir) scanParentForMatch(key string) (absPath, relPath string) {
	segs := strings.Split(key, ".")
	last := segs[len(segs)-1]
	parentSegs := segs[:len(segs)-1]

	var parentRel string
	if len(parentSegs) == 0 {
		parentRel = "."
	} else {
		parentRel = filepath.Join(parentSegs...)
	}

	parentAbs, err := resolveUnderRoot(m.root, parentRel)
	if err != nil {
		return "", ""
	}

	entries, err := os.ReadDir(parentAbs)
	if err != nil {
		return "", ""
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		if strings.HasPrefix(name, last) || strings.Contains(name, last) {
			rel := filepath.Join(parentRel, e.Name())
			abs := filepath.Join(parentAbs, e.Name())
			return abs, rel
		}
	}
	return "", ""
}
