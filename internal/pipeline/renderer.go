package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prensalab/veedor/internal/classify"
	"github.com/prensalab/veedor/internal/model"
	"github.com/prensalab/veedor/internal/refdata"
)

// Renderer writes audit reports as JSON and Markdown. The report body is
// Spanish, like the articles it audits.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the report as a Markdown document
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	if err := os.WriteFile(path, []byte(r.MarkdownString(report)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderLLMMarkdown writes the separate LLM summary document
func (r *Renderer) RenderLLMMarkdown(markdown string, path string) error {
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// MarkdownString builds the Markdown report
func (r *Renderer) MarkdownString(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Auditoría: %s\n\n", report.Subject)

	if report.SourceURL != "" {
		fmt.Fprintf(&b, "- URL: %s\n", report.SourceURL)
	}
	fmt.Fprintf(&b, "- Medio: %s\n", outletOrDesconocido(report.Outlet))
	fmt.Fprintf(&b, "- Obtenido: %s\n", report.FetchedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Categoría: **%s** (variante %s)\n", report.Category, report.Variant)
	fmt.Fprintf(&b, "- Aviso de patrocinio: %s\n", bannerLine(report.Banner))

	described := make(map[string]refdata.Description, len(report.Descriptions))
	for _, d := range report.Descriptions {
		described[strings.ToLower(d.Name)] = d
	}

	b.WriteString("\n## Atribución\n\n")
	fmt.Fprintf(&b, "Estrategia: %s\n", report.Attribution.Strategy)

	writeNameSection(&b, "Reporteros", report.Attribution.Reporters, described, "_ninguno_")
	writeNameSection(&b, "Fuentes citadas", report.Attribution.Sources, nil, "_ninguna_")
	writeNameSection(&b, "Entidades mencionadas", report.Attribution.Entities, described, "_ninguna_")

	b.WriteString("\n## Financiación del medio\n\n")
	switch {
	case report.Outlet == "":
		b.WriteString("El medio no figura en la tabla de financiación.\n")
	case len(report.FundingMentions) == 0:
		fmt.Fprintf(&b, "Sin menciones de financiadores de %s en el texto.\n", report.Outlet)
	default:
		fmt.Fprintf(&b, "El texto menciona financiadores de %s:\n\n", report.Outlet)
		for _, m := range report.FundingMentions {
			fmt.Fprintf(&b, "- %s (%s)\n", m.Entity, m.Type)
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n")
		b.WriteString("Generado por [veedor](https://github.com/prensalab/veedor). ")
		b.WriteString("La categoría se determina sin intervención del modelo de lenguaje.\n")
	}

	return b.String()
}

// RenderSummary prints a compact result to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Printf("\n%s\n", report.Subject)
	if report.Outlet != "" {
		fmt.Printf("  Outlet:    %s\n", report.Outlet)
	}
	fmt.Printf("  Category:  %s (%s)\n", report.Category, report.Variant)
	fmt.Printf("  Names:     %d reporters, %d sources, %d entities\n",
		len(report.Attribution.Reporters), len(report.Attribution.Sources),
		len(report.Attribution.Entities))
	if report.Banner.State == classify.BannerSponsored {
		fmt.Printf("  Banner:    %q\n", report.Banner.Text)
	}
	if len(report.FundingMentions) > 0 {
		fmt.Printf("  Funders:   %d mentioned in text\n", len(report.FundingMentions))
	}
	if report.LLM != nil && report.LLM.Enabled {
		fmt.Printf("  LLM:       %s summary attached\n", report.LLM.Provider)
	}
}

func writeNameSection(b *strings.Builder, title string, names []string, described map[string]refdata.Description, emptyLabel string) {
	fmt.Fprintf(b, "\n### %s (%d)\n\n", title, len(names))
	if len(names) == 0 {
		b.WriteString(emptyLabel + "\n")
		return
	}
	for _, name := range names {
		if d, ok := described[strings.ToLower(name)]; ok {
			fmt.Fprintf(b, "- %s (%s)\n", name, describeSuffix(d))
			continue
		}
		fmt.Fprintf(b, "- %s\n", name)
	}
}

// describeSuffix renders what the reference table adds beyond the name.
func describeSuffix(d refdata.Description) string {
	parts := make([]string, 0, 2)
	if !strings.EqualFold(d.FullName, d.Name) {
		parts = append(parts, d.FullName)
	}
	if d.Type != "" {
		parts = append(parts, d.Type)
	}
	return strings.Join(parts, ", ")
}

func bannerLine(banner classify.Banner) string {
	switch banner.State {
	case classify.BannerSponsored:
		return fmt.Sprintf("detectado (%q)", banner.Text)
	case classify.BannerAbsent:
		return "no detectado"
	default:
		return "sin verificar"
	}
}

func outletOrDesconocido(outlet string) string {
	if outlet == "" {
		return "desconocido"
	}
	return outlet
}
