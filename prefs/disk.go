package prefs

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/scanlime-collective/roboodyssey/rerrors"
)

const keyValueSeparator = " :: "

type diskEntry struct {
	key  string
	pref Pref
}

// Disk collects named Pref cells and loads/saves them as a flat
// "key :: value" file under filename, one entry per line, sorted by
// key on every Save.
type Disk struct {
	filename string
	entries  []diskEntry
}

// NewDisk creates a Disk bound to filename. The file need not exist
// yet; Load on a missing file is a no-op.
func NewDisk(filename string) (*Disk, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, rerrors.Errorf("prefs: no filename for disk")
	}
	return &Disk{filename: filename}, nil
}

// Add registers pref under key. Keys must be unique within one Disk.
func (d *Disk) Add(key string, pref Pref) error {
	for _, e := range d.entries {
		if e.key == key {
			return rerrors.Errorf("prefs: duplicate preference key %q", key)
		}
	}
	d.entries = append(d.entries, diskEntry{key: key, pref: pref})
	return nil
}

// Save writes every registered entry to disk, sorted by key, preceded
// by WarningBoilerPlate.
func (d *Disk) Save() error {
	sorted := append([]diskEntry(nil), d.entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].key < sorted[j].key })

	var b strings.Builder
	b.WriteString(WarningBoilerPlate)
	b.WriteByte('\n')
	for _, e := range sorted {
		b.WriteString(e.key)
		b.WriteString(keyValueSeparator)
		b.WriteString(e.pref.String())
		b.WriteByte('\n')
	}

	if err := os.WriteFile(d.filename, []byte(b.String()), 0o644); err != nil {
		return rerrors.Errorf("prefs: save: %w", err)
	}
	return nil
}

// Load reads filename, setting every matching registered entry from
// its saved value. Lines for keys this Disk never registered are
// silently ignored, as are comment/boilerplate lines. A missing file
// is not an error: a fresh installation simply keeps every entry at
// its zero value.
func (d *Disk) Load() error {
	f, err := os.Open(d.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return rerrors.Errorf("prefs: load: %w", err)
	}
	defer f.Close()

	byKey := make(map[string]Pref, len(d.entries))
	for _, e := range d.entries {
		byKey[e.key] = e.pref
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), ";") {
			continue
		}
		key, value, ok := strings.Cut(line, keyValueSeparator)
		if !ok {
			continue
		}
		pref, ok := byKey[key]
		if !ok {
			continue
		}
		if err := pref.Set(value); err != nil {
			return rerrors.Errorf("prefs: load: key %q: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return rerrors.Errorf("prefs: load: %w", err)
	}
	return nil
}
