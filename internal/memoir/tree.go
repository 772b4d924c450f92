package memoir

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kestrelmd/memoir/internal/index"
)

// List returns every key under the memory root (optionally scoped to
// prefix) as a flat key -> node map, including intermediate folder keys.
func (m *Memoir) List(prefix string) (map[string]Node, error) {
	startRel := "."
	if prefix != "" {
		rel, err := keyToRelPath(prefix)
		if err != nil {
			return nil, err
		}
		startRel = strings.TrimSuffix(rel, ".md")
	}

	startAbs, err := resolveUnderRoot(m.root, startRel)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Node)
	err = filepath.WalkDir(startAbs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == startAbs {
			return nil
		}

		rel, relErr := filepath.Rel(m.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			out[strings.ReplaceAll(rel, "/", ".")] = Node{
				Key:  strings.ReplaceAll(rel, "/", "."),
				Type: NodeFolder,
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		key := relPathToKey(rel)
		title, entryType := m.titleAndTypeForFile(path, key)
		out[key] = Node{Key: key, Type: NodeFile, Title: title, EntryType: entryType}
		return nil
	})
	return out, nil
}

func (m *Memoir) titleAndTypeForFile(absPath, key string) (title, entryType string) {
	stem := key
	if idx := strings.LastIndex(key, "."); idx >= 0 {
		stem = key[idx+1:]
	}

	raw, err := readFileString(absPath)
	if err != nil {
		return stem, ""
	}
	meta, _ := index.ParseFrontMatter(raw)
	title = index.TitleFromFrontMatter(meta, stem)
	if t, ok := meta["type"].(string); ok {
		entryType = t
	}
	return title, entryType
}

// ListTree returns a nested representation rooted at prefix (or the memory
// root), folders before files at each level, alphabetical within each group.
func (m *Memoir) ListTree(prefix string) (*TreeNode, error) {
	flat, err := m.List(prefix)
	if err != nil {
		return nil, err
	}

	rootKey := prefix
	root := &TreeNode{Key: rootKey, Type: NodeFolder}
	byKey := map[string]*TreeNode{rootKey: root}

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		node := flat[k]
		tn := &TreeNode{Key: node.Key, Title: node.Title, Type: node.Type, EntryType: node.EntryType}
		byKey[k] = tn

		parent := parentKey(k)
		p, ok := byKey[parent]
		if !ok {
			p = root
		}
		p.Children = append(p.Children, tn)
	}

	sortTreeChildren(root)
	return root, nil
}

func sortTreeChildren(n *TreeNode) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Type != b.Type {
			return a.Type == NodeFolder
		}
		return a.Key < b.Key
	})
	for _, c := range n.Children {
		sortTreeChildren(c)
	}
}

func parentKey(key string) string {
	idx := strings.LastIndex(key, ".")
	if idx < 0 {
		return ""
	}
	return key[:idx]
}

// TreeForPrompt renders a Markdown outline of the tree rooted at prefix (or
// the memory root). The format is a contract: callers pattern-match on one
// "### <root>" header per top-level folder, with nested folders rendered as
// plain "<name>/" lines and file entries as indented "- <key>: <title>
// [<type>]" lines, where <type> is the entry's front-matter type.
func (m *Memoir) TreeForPrompt(prefix string) (string, error) {
	root, err := m.ListTree(prefix)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	if prefix != "" {
		sb.WriteString(fmt.Sprintf("### %s\n", lastSegment(root.Key)))
		writePromptLines(&sb, root, 0)
		return sb.String(), nil
	}

	for _, c := range root.Children {
		sb.WriteString(fmt.Sprintf("### %s\n", lastSegment(c.Key)))
		if c.Type == NodeFolder {
			writePromptLines(&sb, c, 0)
			continue
		}
		writePromptLines(&sb, &TreeNode{Children: []*TreeNode{c}}, 0)
	}
	return sb.String(), nil
}

// MemoriesByLevel returns every file node under prefix (or the memory root)
// whose depth relative to prefix is exactly n.
func (m *Memoir) MemoriesByLevel(n int, prefix string) (map[string]Node, error) {
	flat, err := m.List(prefix)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Node)
	for k, node := range flat {
		if node.Type != NodeFile {
			continue
		}
		if keyDepth(k, prefix) == n {
			out[k] = node
		}
	}
	return out, nil
}

// SimpleTree renders a terser outline than TreeForPrompt: folder names as
// bare indented lines, file lines as "- title" with no type annotation.
// Unlike TreeForPrompt its format is not a caller-facing contract.
func (m *Memoir) SimpleTree(prefix string) (string, error) {
	root, err := m.ListTree(prefix)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	writeSimpleLines(&sb, root, 0)
	return sb.String(), nil
}

func writeSimpleLines(sb *strings.Builder, n *TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range n.Children {
		if c.Type == NodeFolder {
			sb.WriteString(fmt.Sprintf("%s%s/\n", indent, lastSegment(c.Key)))
			writeSimpleLines(sb, c, depth+1)
			continue
		}
		title := c.Title
		if title == "" {
			title = c.Key
		}
		sb.WriteString(fmt.Sprintf("%s- %s\n", indent, title))
	}
}

func lastSegment(key string) string {
	if idx := strings.LastIndex(key, "."); idx >= 0 {
		return key[idx+1:]
	}
	return key
}

func writePromptLines(sb *strings.Builder, n *TreeNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range n.Children {
		if c.Type == NodeFolder {
			sb.WriteString(fmt.Sprintf("%s%s/\n", indent, lastSegment(c.Key)))
			writePromptLines(sb, c, depth+1)
			continue
		}

		title := c.Title
		if title == "" {
			title = c.Key
		}
		entryType := c.EntryType
		if entryType == "" {
			entryType = "archival"
		}
		sb.WriteString(fmt.Sprintf("%s- %s: %s [%s]\n", indent, c.Key, title, entryType))
	}
}
