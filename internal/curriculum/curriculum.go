// Package curriculum is the static lesson-title lookup table. It only
// backfills a human-readable label when a published plan omits one; the
// engine never depends on a hit.
package curriculum

import (
	_ "embed"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed table.yaml
var rawTable []byte

type table struct {
	Subjects map[string]map[int]map[int]string `yaml:"subjects"`
}

var (
	loadOnce sync.Once
	loaded   table
	loadErr  error
)

func load() (table, error) {
	loadOnce.Do(func() {
		loadErr = yaml.Unmarshal(rawTable, &loaded)
	})
	return loaded, loadErr
}

// Title returns the lesson title for (subject, unit, lesson), or false
// when the table has no entry.
func Title(subject string, unit, lesson int) (string, bool) {
	t, err := load()
	if err != nil {
		return "", false
	}
	units, ok := t.Subjects[strings.ToLower(strings.TrimSpace(subject))]
	if !ok {
		return "", false
	}
	lessons, ok := units[unit]
	if !ok {
		return "", false
	}
	title, ok := lessons[lesson]
	if !ok || title == "" {
		return "", false
	}
	return title, true
}
