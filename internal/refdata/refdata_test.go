package refdata

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadEntitiesDefaultsFullName(t *testing.T) {
	csv := "Entity,FullName,Type\nGuindos,Luís de Guindos,persona\nMoncloa,,institución\n"
	e, err := LoadEntities(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadEntities failed: %v", err)
	}

	d := e.Describe("Guindos")
	if d.FullName != "Luís de Guindos" {
		t.Errorf("Expected fullname 'Luís de Guindos', got %q", d.FullName)
	}
	if d.Type != "persona" {
		t.Errorf("Expected type 'persona', got %q", d.Type)
	}

	d = e.Describe("Moncloa")
	if d.FullName != "Moncloa" {
		t.Errorf("Expected fullname to default to the name, got %q", d.FullName)
	}
}

func TestDescribeIsCaseInsensitive(t *testing.T) {
	csv := "Entity,FullName,Type\nCIS,Centro de Investigaciones Sociológicas,organismo\n"
	e, err := LoadEntities(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadEntities failed: %v", err)
	}

	d := e.Describe("cis")
	if d.FullName != "Centro de Investigaciones Sociológicas" {
		t.Errorf("Expected lowercase lookup to resolve, got %q", d.FullName)
	}
	if d.Name != "cis" {
		t.Errorf("Expected the queried spelling back, got %q", d.Name)
	}
}

func TestDescribeUnknownName(t *testing.T) {
	e, err := LoadEntities(strings.NewReader("Entity\nCIS\n"))
	if err != nil {
		t.Fatalf("LoadEntities failed: %v", err)
	}

	d := e.Describe("Fulano de Tal")
	if d.Name != "Fulano de Tal" || d.FullName != "Fulano de Tal" {
		t.Errorf("Expected name echoed back, got %+v", d)
	}
	if d.Type != "" {
		t.Errorf("Expected empty type for unknown name, got %q", d.Type)
	}
}

func TestLoadEntitiesMissingColumn(t *testing.T) {
	_, err := LoadEntities(strings.NewReader("Nombre,Tipo\nCIS,organismo\n"))
	if err == nil {
		t.Fatal("Expected error for table without Entity column")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestDefaultTablesLoadOnce(t *testing.T) {
	e1 := DefaultEntities()
	e2 := DefaultEntities()
	if e1 != e2 {
		t.Error("Expected DefaultEntities to return the same table")
	}
	if e1.Len() == 0 {
		t.Error("Expected embedded entities table to be non-empty")
	}

	f1 := DefaultFunding()
	f2 := DefaultFunding()
	if f1 != f2 {
		t.Error("Expected DefaultFunding to return the same table")
	}
	if len(f1.Outlets()) == 0 {
		t.Error("Expected embedded funding table to list outlets")
	}
}

func testFunding(t *testing.T) *FundingTable {
	t.Helper()
	csv := `MediaName,MediaURL,Entity,Type
EL PAÍS,elpais.com,Banco Santander,accionista
EL PAÍS,elpais.com,Telefónica,anunciante
El Mundo,elmundo.es,BBVA,acreedor
`
	table, err := LoadFunding(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadFunding failed: %v", err)
	}
	return table
}

func TestOutletsAreDistinct(t *testing.T) {
	outlets := testFunding(t).Outlets()
	if len(outlets) != 2 {
		t.Fatalf("Expected 2 outlets, got %d", len(outlets))
	}
	if outlets[0].Name != "EL PAÍS" || outlets[1].Name != "El Mundo" {
		t.Errorf("Expected table order preserved, got %+v", outlets)
	}
}

func TestLookupOutletByHost(t *testing.T) {
	table := testFunding(t)

	tests := []struct {
		name    string
		url     string
		outlet  string
		matched bool
	}{
		{"plain host", "https://elpais.com/espana/articulo.html", "EL PAÍS", true},
		{"www prefix", "https://www.elmundo.es/economia.html", "El Mundo", true},
		{"subdomain", "https://cincodias.elpais.com/mercados.html", "EL PAÍS", true},
		{"unknown outlet", "https://example.org/nota.html", "", false},
		{"not a url", "%%%", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, ok := table.LookupOutlet(tt.url)
			if ok != tt.matched {
				t.Fatalf("Expected matched=%v, got %v", tt.matched, ok)
			}
			if ok && o.Name != tt.outlet {
				t.Errorf("Expected outlet %q, got %q", tt.outlet, o.Name)
			}
		})
	}
}

func TestMentionsInScansLiteralText(t *testing.T) {
	table := testFunding(t)
	outlet := Outlet{Name: "EL PAÍS", URL: "elpais.com"}

	text := "Telefónica presentó ayer sus resultados trimestrales."
	mentions := table.MentionsIn(outlet, text)
	if len(mentions) != 1 {
		t.Fatalf("Expected 1 mention, got %d", len(mentions))
	}
	if mentions[0].Entity != "Telefónica" || mentions[0].Type != "anunciante" {
		t.Errorf("Unexpected mention %+v", mentions[0])
	}

	// Matching is literal, a lowercased spelling is a different string.
	if got := table.MentionsIn(outlet, "telefónica subió en bolsa"); len(got) != 0 {
		t.Errorf("Expected no mentions for lowercased spelling, got %+v", got)
	}

	// BBVA funds El Mundo, not EL PAÍS.
	if got := table.MentionsIn(outlet, "BBVA anunció dividendos"); len(got) != 0 {
		t.Errorf("Expected no cross-outlet mentions, got %+v", got)
	}
}

func TestEntriesFor(t *testing.T) {
	table := testFunding(t)
	entries := table.EntriesFor(Outlet{Name: "EL PAÍS", URL: "elpais.com"})
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
}
