package index

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatterDelim is the marker line bracketing a YAML front-matter block.
const frontMatterDelim = "---"

// ParseFrontMatter splits a Markdown file into its front-matter (raw YAML,
// re-marshaled to JSON-ish map form for storage) and body. A file without a
// leading "---" block has no front-matter and its content is returned as-is.
func ParseFrontMatter(raw string) (meta map[string]any, body string) {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontMatterDelim {
		return nil, raw
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterDelim {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, raw
	}

	yamlBlock := strings.Join(lines[1:end], "\n")
	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(yamlBlock), &parsed); err != nil {
		return nil, raw
	}

	body = strings.TrimPrefix(strings.Join(lines[end+1:], "\n"), "\n")
	return parsed, body
}

// TitleFromFrontMatter returns frontmatter["title"] if present as a string,
// otherwise the file stem derived from path.
func TitleFromFrontMatter(meta map[string]any, stem string) string {
	if meta != nil {
		if t, ok := meta["title"].(string); ok && t != "" {
			return t
		}
	}
	return stem
}

// marshalFrontmatter re-serializes parsed front-matter to YAML for storage
// alongside the document row. A file with no front-matter yields "".
func marshalFrontmatter(meta map[string]any) (string, error) {
	if meta == nil {
		return "", nil
	}
	out, err := yaml.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
