// Package refdata loads the reference tables the auditor consults: entity
// descriptions and the per-outlet funding table (investors and large
// advertisers).
package refdata

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"
)

// ErrUnavailable marks missing or malformed reference files.
var ErrUnavailable = errors.New("reference data unavailable")

//go:embed data/entities.csv data/funding.csv
var embedded embed.FS

// Description is what the reference table knows about a name. FullName
// falls back to the queried name and Type stays empty for unknown names.
type Description struct {
	Name     string `json:"name"`
	FullName string `json:"fullname"`
	Type     string `json:"type,omitempty"`
}

// Entities is the case-insensitive entity description table.
type Entities struct {
	byName map[string]Description
}

var (
	defaultEntities *Entities
	entitiesOnce    sync.Once
)

// DefaultEntities returns the table built from the embedded CSV, loaded
// once per process.
func DefaultEntities() *Entities {
	entitiesOnce.Do(func() {
		f, err := embedded.Open("data/entities.csv")
		if err != nil {
			panic(fmt.Sprintf("refdata: embedded entities: %v", err))
		}
		defer func() { _ = f.Close() }()
		e, err := LoadEntities(f)
		if err != nil {
			panic(fmt.Sprintf("refdata: embedded entities: %v", err))
		}
		defaultEntities = e
	})
	return defaultEntities
}

// LoadEntitiesFile loads an entity table from a file system path.
func LoadEntitiesFile(fsys fs.FS, path string) (*Entities, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	defer func() { _ = f.Close() }()
	return LoadEntities(f)
}

// LoadEntities reads a CSV with Entity, FullName and Type columns. Header
// names are matched case-insensitively.
func LoadEntities(r io.Reader) (*Entities, error) {
	rows, header, err := readTable(r)
	if err != nil {
		return nil, err
	}

	entityCol, ok := header["entity"]
	if !ok {
		return nil, fmt.Errorf("%w: missing Entity column", ErrUnavailable)
	}
	fullCol, hasFull := header["fullname"]
	typeCol, hasType := header["type"]

	e := &Entities{byName: make(map[string]Description, len(rows))}
	for _, row := range rows {
		name := strings.TrimSpace(row[entityCol])
		if name == "" {
			continue
		}
		d := Description{Name: name, FullName: name}
		if hasFull {
			if full := strings.TrimSpace(row[fullCol]); full != "" {
				d.FullName = full
			}
		}
		if hasType {
			d.Type = strings.TrimSpace(row[typeCol])
		}
		e.byName[strings.ToLower(name)] = d
	}

	return e, nil
}

// Describe looks a name up case-insensitively. Unknown names come back
// with FullName set to the name itself and an empty Type.
func (e *Entities) Describe(name string) Description {
	if d, ok := e.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		d.Name = name
		return d
	}
	return Description{Name: name, FullName: name}
}

// Len returns the number of known entities.
func (e *Entities) Len() int {
	return len(e.byName)
}

// readTable parses CSV rows and maps lowercased header names to column
// indexes. Short rows are padded so column lookups stay in range.
func readTable(r io.Reader) ([][]string, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: empty table", ErrUnavailable)
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	width := len(records[0])
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		for len(rec) < width {
			rec = append(rec, "")
		}
		rows = append(rows, rec)
	}

	return rows, header, nil
}
