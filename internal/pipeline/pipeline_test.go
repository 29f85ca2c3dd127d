package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prensalab/veedor/internal/classify"
	"github.com/prensalab/veedor/internal/extract"
	"github.com/prensalab/veedor/internal/extract/taxonomy"
	"github.com/prensalab/veedor/internal/model"
	"github.com/prensalab/veedor/internal/nlp"
	"github.com/prensalab/veedor/internal/refdata"
)

// stubAnalyzer returns a canned document, so pipeline behavior is tested
// independently of the NLP model.
type stubAnalyzer struct {
	doc      *nlp.Document
	entities map[string][]nlp.Entity
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string) (*nlp.Document, error) {
	if strings.TrimSpace(text) == "" {
		return &nlp.Document{}, nil
	}
	return s.doc, nil
}

func (s *stubAnalyzer) RecognizeEntities(ctx context.Context, sentence string) ([]nlp.Entity, error) {
	return s.entities[sentence], nil
}

func auditStore() *taxonomy.Store {
	s := taxonomy.New()
	s.AddCategory([]string{"afirmó", "dijo"}, taxonomy.ReportedVerb)
	s.AddCategory([]string{"fuentes", "CIS"}, taxonomy.Source)
	return s
}

// auditDoc fakes the parse of an article where Luís de Guindos speaks, the
// BCE is mentioned and two taxonomy sources appear.
func auditDoc() *nlp.Document {
	return &nlp.Document{Sentences: []nlp.Sentence{
		{
			Text: "Luís de Guindos afirmó que el BCE mantiene los tipos",
			Tokens: []nlp.Token{
				{Text: "Luís", POS: "NNP", Index: 0, Role: "SBJ", VerbLemma: "afirm"},
				{Text: "de", POS: "IN", Index: 1},
				{Text: "Guindos", POS: "NNP", Index: 2, Role: "SBJ", VerbLemma: "afirm"},
				{Text: "afirmó", POS: "VBD", Index: 3},
				{Text: "que", POS: "IN", Index: 4},
				{Text: "el", POS: "DT", Index: 5},
				{Text: "BCE", POS: "NNP", Index: 6},
				{Text: "mantiene", POS: "NN", Index: 7},
				{Text: "los", POS: "DT", Index: 8},
				{Text: "tipos", POS: "NNS", Index: 9},
			},
		},
		{
			Text: "Las fuentes del CIS lo confirmaron",
			Tokens: []nlp.Token{
				{Text: "Las", POS: "DT", Index: 0},
				{Text: "fuentes", POS: "NNS", Index: 1},
				{Text: "del", POS: "IN", Index: 2},
				{Text: "CIS", POS: "NNP", Index: 3},
				{Text: "lo", POS: "PRP", Index: 4},
				{Text: "confirmaron", POS: "NN", Index: 5},
			},
		},
	}}
}

// testPipeline wires a pipeline by hand: stub analyzer, tiny taxonomy and a
// funding table registered for the test server's host.
func testPipeline(t *testing.T, serverURL string) *Pipeline {
	t.Helper()

	cfg := testFetcherConfig(t)
	analyzer := &stubAnalyzer{doc: auditDoc()}

	fundingCSV := fmt.Sprintf("MediaName,MediaURL,Entity,Type\nEL PAÍS,%s,Banco Santander,accionista\n", serverURL)
	funding, err := refdata.LoadFunding(strings.NewReader(fundingCSV))
	if err != nil {
		t.Fatalf("Failed to load funding table: %v", err)
	}

	return &Pipeline{
		fetcher:  NewFetcher(cfg),
		analyzer: analyzer,
		extractOpts: extract.Options{
			Analyzer: analyzer,
			Taxonomy: auditStore(),
		},
		entities:   refdata.DefaultEntities(),
		funding:    funding,
		banners:    classify.NewBannerDetector(analyzer),
		classifier: classify.NewClassifier(classify.VariantSeria),
		renderer:   NewRenderer(true),
		config:     cfg,
	}
}

const sponsoredArticle = `<html><head><title>El BCE mantiene los tipos</title></head><body>
<a class="badge_link">CONTENIDO PATROCINADO</a>
<article>
<p>Luís de Guindos afirmó que el BCE mantiene los tipos.</p>
<p>Las fuentes del CIS lo confirmaron.</p>
<p>Banco Santander presenta este especial.</p>
</article>
</body></html>`

const plainArticle = `<html><head><title>El BCE mantiene los tipos</title></head><body>
<article>
<p>Luís de Guindos afirmó que el BCE mantiene los tipos.</p>
<p>Las fuentes del CIS lo confirmaron.</p>
</article>
</body></html>`

func serveArticle(t *testing.T, page string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, page)
	}))
}

func TestAuditURL_SponsoredWithFundingMention(t *testing.T) {
	server := serveArticle(t, sponsoredArticle)
	defer server.Close()

	p := testPipeline(t, server.URL)
	result, err := p.AuditURL(context.Background(), server.URL+"/economia/bce.html")
	if err != nil {
		t.Fatalf("AuditURL failed: %v", err)
	}
	report := result.Report

	if report.Outlet != "EL PAÍS" {
		t.Errorf("Expected outlet 'EL PAÍS', got %q", report.Outlet)
	}
	if report.Subject != "El BCE mantiene los tipos" {
		t.Errorf("Expected subject from page title, got %q", report.Subject)
	}
	if report.Banner.State != classify.BannerSponsored {
		t.Errorf("Expected sponsored banner, got %v", report.Banner.State)
	}
	if len(report.FundingMentions) != 1 || report.FundingMentions[0].Entity != "Banco Santander" {
		t.Errorf("Expected one funding mention of Banco Santander, got %v", report.FundingMentions)
	}
	if report.Category != classify.CategoryPublicidad {
		t.Errorf("Expected category %q, got %q", classify.CategoryPublicidad, report.Category)
	}
	if !hasString(report.Attribution.Reporters, "Luís de Guindos") {
		t.Errorf("Expected reporter 'Luís de Guindos', got %v", report.Attribution.Reporters)
	}
	if report.ID == "" {
		t.Error("Expected report to carry an identifier")
	}
}

func TestAuditURL_UnknownOutletClassifiesBySourcing(t *testing.T) {
	server := serveArticle(t, plainArticle)
	defer server.Close()

	// Funding table registered for a different host: the outlet stays
	// unknown and no banner rule applies.
	p := testPipeline(t, "https://otromedio.example")
	result, err := p.AuditURL(context.Background(), server.URL+"/nota.html")
	if err != nil {
		t.Fatalf("AuditURL failed: %v", err)
	}
	report := result.Report

	if report.Outlet != "" {
		t.Errorf("Expected unknown outlet, got %q", report.Outlet)
	}
	if report.Banner.State != classify.BannerUnknown {
		t.Errorf("Expected unknown banner state, got %v", report.Banner.State)
	}
	if len(report.FundingMentions) != 0 {
		t.Errorf("Expected no funding mentions, got %v", report.FundingMentions)
	}

	// 1 reporter + 2 sources = 3 attributions, enough for Información
	if got := report.Attribution.Count(); got != 3 {
		t.Fatalf("Expected 3 attributions, got %d (%+v)", got, report.Attribution)
	}
	if report.Category != classify.CategoryInformacion {
		t.Errorf("Expected category %q, got %q", classify.CategoryInformacion, report.Category)
	}
}

func TestAuditURL_DescribesKnownEntities(t *testing.T) {
	server := serveArticle(t, plainArticle)
	defer server.Close()

	p := testPipeline(t, server.URL)
	result, err := p.AuditURL(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("AuditURL failed: %v", err)
	}

	var found bool
	for _, d := range result.Report.Descriptions {
		if d.Name == "BCE" {
			found = true
			if d.FullName != "Banco Central Europeo" {
				t.Errorf("Expected full name for BCE, got %q", d.FullName)
			}
		}
	}
	if !found {
		t.Errorf("Expected BCE description, got %v", result.Report.Descriptions)
	}
}

func TestAuditText_ExtractionOnly(t *testing.T) {
	p := testPipeline(t, "https://otromedio.example")

	result, err := p.AuditText(context.Background(), "nota de prueba", "Luís de Guindos afirmó que el BCE mantiene los tipos.")
	if err != nil {
		t.Fatalf("AuditText failed: %v", err)
	}
	report := result.Report

	if report.Subject != "nota de prueba" {
		t.Errorf("Expected given subject, got %q", report.Subject)
	}
	if report.Banner.State != classify.BannerUnknown {
		t.Errorf("Expected unknown banner without markup, got %v", report.Banner.State)
	}
	if !hasString(report.Attribution.Reporters, "Luís de Guindos") {
		t.Errorf("Expected reporter, got %v", report.Attribution.Reporters)
	}
	if report.Category != classify.CategoryInformacion {
		t.Errorf("Expected category %q, got %q", classify.CategoryInformacion, report.Category)
	}
}

func TestRenderReport_WritesAllArtifacts(t *testing.T) {
	server := serveArticle(t, sponsoredArticle)
	defer server.Close()

	p := testPipeline(t, server.URL)
	result, err := p.AuditURL(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("AuditURL failed: %v", err)
	}

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "report.json")
	mdPath := filepath.Join(dir, "report.md")

	if err := p.RenderReport(result.Report, jsonPath, mdPath, false); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON report: %v", err)
	}
	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to decode JSON report: %v", err)
	}
	if decoded.Category != result.Report.Category {
		t.Errorf("JSON category mismatch: %q vs %q", decoded.Category, result.Report.Category)
	}

	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("Failed to read Markdown report: %v", err)
	}
	for _, section := range []string{
		"# Auditoría:",
		"## Atribución",
		"## Financiación del medio",
		"- Luís de Guindos",
		"Banco Santander (accionista)",
	} {
		if !strings.Contains(string(md), section) {
			t.Errorf("Expected Markdown to contain %q", section)
		}
	}
}

func TestMarkdownString_UnknownOutlet(t *testing.T) {
	r := NewRenderer(true)
	report := model.NewReport("nota sin medio")
	report.Category = classify.CategoryParcial
	report.Variant = "seria"

	md := r.MarkdownString(report)

	for _, section := range []string{
		"Medio: desconocido",
		"Aviso de patrocinio: sin verificar",
		"El medio no figura en la tabla de financiación.",
		"_ninguno_",
		"**Contenido Parcial**",
	} {
		if !strings.Contains(md, section) {
			t.Errorf("Expected Markdown to contain %q, got:\n%s", section, md)
		}
	}
}

func TestMarkdownString_FooterToggle(t *testing.T) {
	report := model.NewReport("nota")
	report.Category = classify.CategoryParcial
	report.Variant = "seria"

	with := NewRenderer(true).MarkdownString(report)
	if !strings.Contains(with, "Generado por") {
		t.Error("Expected footer when enabled")
	}

	without := NewRenderer(false).MarkdownString(report)
	if strings.Contains(without, "Generado por") {
		t.Error("Expected no footer when disabled")
	}
}

func hasString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
