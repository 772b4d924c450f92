package memoir

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// cleanMetadata strips nil-valued entries from incoming metadata before it
// participates in a merge; a caller passing an explicit nil for a field is
// expressing "no opinion", not "set to null".
func cleanMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

// mergeFrontmatter computes the persisted metadata for a write: defaults,
// then existing, then the cleaned incoming metadata, then a forced
// updated_at. Each layer overwrites keys present in the one before it.
func mergeFrontmatter(key string, existing, cleanedNew map[string]any, now string) map[string]any {
	out := map[string]any{
		"id":   key,
		"key":  key,
		"type": "archival",
	}
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range cleanedNew {
		out[k] = v
	}
	out["updated_at"] = now
	return out
}

// applyZoneDefaults fills default_type/default_half_life_days into cleaned
// new metadata, but only for keys the caller did not already supply.
func applyZoneDefaults(cleanedNew map[string]any, z *Zone) map[string]any {
	if z == nil {
		return cleanedNew
	}
	if _, ok := cleanedNew["type"]; !ok && z.DefaultType != "" {
		cleanedNew["type"] = z.DefaultType
	}
	if _, ok := cleanedNew["half_life_days"]; !ok && z.DefaultHalfLifeDays > 0 {
		cleanedNew["half_life_days"] = z.DefaultHalfLifeDays
	}
	return cleanedNew
}

// renderFrontmatterOnly serializes metadata to bare YAML, matching the
// format index.Indexer stores in Document.Frontmatter.
func renderFrontmatterOnly(meta map[string]any) (string, error) {
	out, err := yaml.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// renderEntry serializes metadata as a YAML front-matter block followed by
// body, matching the "---\n<yaml>\n---\n<body>" convention read by
// ParseFrontMatter.
func renderEntry(meta map[string]any, body string) (string, error) {
	yamlBytes, err := yaml.Marshal(meta)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(yamlBytes)
	sb.WriteString("---\n")
	sb.WriteString(body)
	return sb.String(), nil
}
