package memoir

import "testing"

func TestKeyToRelPath(t *testing.T) {
	cases := map[string]string{
		"a":     "a.md",
		"a.b":   "a/b.md",
		"a.b.c": "a/b/c.md",
	}
	for key, want := range cases {
		got, err := keyToRelPath(key)
		if err != nil {
			t.Fatalf("keyToRelPath(%q): %v", key, err)
		}
		if got != want {
			t.Errorf("keyToRelPath(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestKeyToRelPathRejectsInvalidSegments(t *testing.T) {
	invalid := []string{"", "a..b", "a.", ".a", "a/b", "a.b\\c", "a..", "a...b"}
	for _, key := range invalid {
		if _, err := keyToRelPath(key); err == nil {
			t.Errorf("keyToRelPath(%q) = nil error, want error", key)
		}
	}
}

func TestRelPathToKeyIsInverse(t *testing.T) {
	keys := []string{"a", "a.b", "a.b.c"}
	for _, key := range keys {
		rel, err := keyToRelPath(key)
		if err != nil {
			t.Fatalf("keyToRelPath(%q): %v", key, err)
		}
		if got := relPathToKey(rel); got != key {
			t.Errorf("relPathToKey(%q) = %q, want %q", rel, got, key)
		}
	}
}

func TestKeyDepth(t *testing.T) {
	if d := keyDepth("a.b.c", ""); d != 3 {
		t.Errorf("keyDepth(a.b.c, \"\") = %d, want 3", d)
	}
	if d := keyDepth("zone.a.b", "zone"); d != 2 {
		t.Errorf("keyDepth(zone.a.b, zone) = %d, want 2", d)
	}
	if d := keyDepth("zone", "zone"); d != 0 {
		t.Errorf("keyDepth(zone, zone) = %d, want 0", d)
	}
}
