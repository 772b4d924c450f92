package memoir

import (
	"path/filepath"
	"strings"

	memerrors "github.com/kestrelmd/memoir/internal/errors"
)

// splitKey splits a dotted key into its segments and validates each one: no
// segment may be empty, equal to "..", or contain a path separator.
func splitKey(key string) ([]string, error) {
	if key == "" {
		return nil, memerrors.New(memerrors.KindInvalidKey, "key must not be empty")
	}

	segs := strings.Split(key, ".")
	for _, seg := range segs {
		if seg == "" {
			return nil, memerrors.New(memerrors.KindInvalidKey, "key \""+key+"\" has an empty segment")
		}
		if seg == ".." {
			return nil, memerrors.New(memerrors.KindInvalidKey, "key \""+key+"\" has a \"..\" segment")
		}
		if strings.ContainsAny(seg, "/\\") {
			return nil, memerrors.New(memerrors.KindInvalidKey, "key \""+key+"\" segment \""+seg+"\" contains a path separator")
		}
	}
	return segs, nil
}

// keyToRelPath maps a dotted key to its relative path under the memory root:
// "a.b.c" -> "a/b/c.md".
func keyToRelPath(key string) (string, error) {
	segs, err := splitKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(segs...) + ".md", nil
}

// relPathToKey is the inverse of keyToRelPath.
func relPathToKey(relPath string) string {
	rel := strings.TrimSuffix(filepath.ToSlash(relPath), ".md")
	return strings.ReplaceAll(rel, "/", ".")
}

// resolveUnderRoot joins root and relPath and asserts the cleaned result
// remains at or under root, guarding against traversal.
func resolveUnderRoot(root, relPath string) (string, error) {
	abs := filepath.Join(root, relPath)
	cleanRoot := filepath.Clean(root)
	if abs != cleanRoot && !strings.HasPrefix(abs, cleanRoot+string(filepath.Separator)) {
		return "", memerrors.New(memerrors.KindPathEscape, "key resolves outside the memory root")
	}
	return abs, nil
}

// keyDepth returns the segment count of key, or of key's suffix past prefix
// when prefix is a non-empty ancestor of key.
func keyDepth(key, prefix string) int {
	rel := key
	if prefix != "" {
		if key == prefix {
			return 0
		}
		rel = strings.TrimPrefix(key, prefix+".")
	}
	return strings.Count(rel, ".") + 1
}
