package memoir

import (
	"io/fs"
	"path/filepath"
	"strings"

	memerrors "github.com/kestrelmd/memoir/internal/errors"
)

// DefineZone registers or replaces a zone by name.
func (m *Memoir) DefineZone(z Zone) {
	m.zoneMu.Lock()
	defer m.zoneMu.Unlock()
	m.zones[z.Name] = &z
}

// zoneFor returns the most specific zone whose prefix matches key, or nil.
func (m *Memoir) zoneFor(key string) *Zone {
	m.zoneMu.Lock()
	defer m.zoneMu.Unlock()

	var best *Zone
	bestLen := -1
	for _, z := range m.zones {
		if !zoneMatches(key, z.KeyPrefix) {
			continue
		}
		if len(z.KeyPrefix) > bestLen {
			best = z
			bestLen = len(z.KeyPrefix)
		}
	}
	return best
}

func zoneMatches(key, prefix string) bool {
	if prefix == "" {
		return false
	}
	return key == prefix || strings.HasPrefix(key, prefix+".")
}

// enforceZone checks max_depth and max_items for a new file being created
// under key. It is a no-op for updates to an existing file.
func (m *Memoir) enforceZone(z *Zone, key string, isNew bool) error {
	if z == nil || !isNew {
		return nil
	}

	if z.MaxDepth > 0 {
		depth := keyDepth(key, z.KeyPrefix)
		if depth > z.MaxDepth {
			return memerrors.New(memerrors.KindZoneDepthExceeded,
				"key \""+key+"\" exceeds zone \""+z.Name+"\" max_depth")
		}
	}

	if z.MaxItems > 0 {
		count, err := m.countFilesUnderPrefix(z.KeyPrefix)
		if err != nil {
			return err
		}
		if count >= z.MaxItems {
			return memerrors.New(memerrors.KindZoneQuotaExceeded,
				"zone \""+z.Name+"\" is at its max_items quota")
		}
	}

	return nil
}

// countFilesUnderPrefix counts .md files under the directory a zone prefix
// maps to. A missing directory counts as zero.
func (m *Memoir) countFilesUnderPrefix(prefix string) (int, error) {
	relDir, err := keyToRelPath(prefix)
	if err != nil {
		return 0, err
	}
	relDir = strings.TrimSuffix(relDir, ".md")

	absDir, err := resolveUnderRoot(m.root, relDir)
	if err != nil {
		return 0, err
	}

	count := 0
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			count++
		}
		return nil
	})
	if err != nil {
		// Directory does not exist yet: zero entries so far.
		return 0, nil
	}
	return count, nil
}

// ZoneStats reports current occupancy for a defined zone.
func (m *Memoir) ZoneStats(name string) (*ZoneStatsResult, error) {
	m.zoneMu.Lock()
	z, ok := m.zones[name]
	m.zoneMu.Unlock()
	if !ok {
		return nil, memerrors.New(memerrors.KindInvalidKey, "zone \""+name+"\" is not defined")
	}

	count, err := m.countFilesUnderPrefix(z.KeyPrefix)
	if err != nil {
		return nil, err
	}

	return &ZoneStatsResult{
		Zone:      z.Name,
		ItemCount: count,
		MaxItems:  z.MaxItems,
		MaxDepth:  z.MaxDepth,
	}, nil
}
