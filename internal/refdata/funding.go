package refdata

import (
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strings"
	"sync"
)

// FundingEntry links one outlet to one entity with a financial relation to
// it, as carried in the funding table.
type FundingEntry struct {
	MediaName string `json:"media_name"`
	MediaURL  string `json:"media_url"`
	Entity    string `json:"entity"`
	Type      string `json:"type"`
}

// Outlet identifies a news outlet from the funding table.
type Outlet struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FundingTable holds the outlet funding entries.
type FundingTable struct {
	entries []FundingEntry
}

var (
	defaultFunding *FundingTable
	fundingOnce    sync.Once
)

// DefaultFunding returns the table built from the embedded CSV, loaded
// once per process.
func DefaultFunding() *FundingTable {
	fundingOnce.Do(func() {
		f, err := embedded.Open("data/funding.csv")
		if err != nil {
			panic(fmt.Sprintf("refdata: embedded funding: %v", err))
		}
		defer func() { _ = f.Close() }()
		t, err := LoadFunding(f)
		if err != nil {
			panic(fmt.Sprintf("refdata: embedded funding: %v", err))
		}
		defaultFunding = t
	})
	return defaultFunding
}

// LoadFundingFile loads a funding table from a file system path.
func LoadFundingFile(fsys fs.FS, path string) (*FundingTable, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	defer func() { _ = f.Close() }()
	return LoadFunding(f)
}

// LoadFunding reads a CSV with MediaName, MediaURL, Entity and Type
// columns.
func LoadFunding(r io.Reader) (*FundingTable, error) {
	rows, header, err := readTable(r)
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, 4)
	for _, name := range []string{"medianame", "mediaurl", "entity", "type"} {
		idx, ok := header[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s column", ErrUnavailable, name)
		}
		cols[name] = idx
	}

	t := &FundingTable{}
	for _, row := range rows {
		entry := FundingEntry{
			MediaName: strings.TrimSpace(row[cols["medianame"]]),
			MediaURL:  strings.TrimSpace(row[cols["mediaurl"]]),
			Entity:    strings.TrimSpace(row[cols["entity"]]),
			Type:      strings.TrimSpace(row[cols["type"]]),
		}
		if entry.MediaName == "" || entry.Entity == "" {
			continue
		}
		t.entries = append(t.entries, entry)
	}

	return t, nil
}

// Outlets returns the distinct outlets in table order.
func (t *FundingTable) Outlets() []Outlet {
	seen := make(map[Outlet]bool)
	var out []Outlet
	for _, e := range t.entries {
		o := Outlet{Name: e.MediaName, URL: e.MediaURL}
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	return out
}

// LookupOutlet resolves the outlet that published the given article URL by
// host comparison, ignoring a leading www.
func (t *FundingTable) LookupOutlet(articleURL string) (Outlet, bool) {
	host := hostOf(articleURL)
	if host == "" {
		return Outlet{}, false
	}
	for _, o := range t.Outlets() {
		outletHost := hostOf(o.URL)
		if outletHost == "" {
			continue
		}
		if host == outletHost || strings.HasSuffix(host, "."+outletHost) {
			return o, true
		}
	}
	return Outlet{}, false
}

// MentionsIn returns the outlet's funding entities that literally occur in
// the article text.
func (t *FundingTable) MentionsIn(outlet Outlet, text string) []FundingEntry {
	var out []FundingEntry
	for _, e := range t.entries {
		if e.MediaName != outlet.Name {
			continue
		}
		if strings.Contains(text, e.Entity) {
			out = append(out, e)
		}
	}
	return out
}

// EntriesFor returns every funding entry of one outlet.
func (t *FundingTable) EntriesFor(outlet Outlet) []FundingEntry {
	var out []FundingEntry
	for _, e := range t.entries {
		if e.MediaName == outlet.Name {
			out = append(out, e)
		}
	}
	return out
}

// hostOf normalizes a URL or bare domain to its host without www.
func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
