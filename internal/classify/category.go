package classify

import "fmt"

// Category labels what kind of piece an article turned out to be.
type Category string

const (
	// CategoryInformacion marks regular reporting with enough attributed
	// sourcing.
	CategoryInformacion Category = "Información"
	// CategoryPublicidad marks advertising.
	CategoryPublicidad Category = "Publicidad"
	// CategoryPatrocinado marks labeled sponsored content with no known
	// funding tie to the sponsor.
	CategoryPatrocinado Category = "Contenido Patrocinado"
	// CategoryEncubierta marks unlabeled pieces that mention an entity
	// funding the outlet.
	CategoryEncubierta Category = "Publicidad Encubierta"
	// CategoryParcial marks thinly sourced pieces.
	CategoryParcial Category = "Contenido Parcial"
)

// Variant selects how harshly labeled sponsored content is judged.
type Variant int

const (
	// VariantSeria distinguishes disclosed sponsorship from advertising.
	VariantSeria Variant = iota
	// VariantGamberra calls every banner-labeled piece advertising.
	VariantGamberra
)

// String returns the variant name used in flags and reports.
func (v Variant) String() string {
	if v == VariantGamberra {
		return "gamberra"
	}
	return "seria"
}

// VariantFromString parses a variant name.
func VariantFromString(s string) (Variant, error) {
	switch s {
	case "seria", "":
		return VariantSeria, nil
	case "gamberra":
		return VariantGamberra, nil
	default:
		return VariantSeria, fmt.Errorf("unknown variant: %s", s)
	}
}

// minAttributions is the sourcing bar a piece must clear to count as
// information rather than thin content.
const minAttributions = 2

// Signals are the audit facts the category decision runs on.
// Attributions counts the distinct reporters and sources the extraction
// engine found; FundingMentions counts outlet funders named in the text.
type Signals struct {
	Banner          Banner
	Attributions    int
	FundingMentions int
}

// Classifier maps audit signals to a category under one variant.
type Classifier struct {
	variant Variant
}

// NewClassifier creates a classifier for the given variant.
func NewClassifier(variant Variant) *Classifier {
	return &Classifier{variant: variant}
}

// Variant returns the configured variant.
func (c *Classifier) Variant() Variant {
	return c.variant
}

// Categorize decides the category for one article.
//
// A sponsored banner makes the piece advertising when the sponsor also
// funds the outlet, and disclosed sponsored content otherwise; the
// gamberra variant skips that distinction. Without a banner the piece is
// information when it clears the sourcing bar, thin content when it does
// not, and covert advertising in either case when it names an outlet
// funder.
func (c *Classifier) Categorize(s Signals) Category {
	if s.Banner.State == BannerSponsored {
		if c.variant == VariantGamberra {
			return CategoryPublicidad
		}
		if s.FundingMentions > 0 {
			return CategoryPublicidad
		}
		return CategoryPatrocinado
	}

	if s.FundingMentions > 0 {
		return CategoryEncubierta
	}
	if s.Attributions > minAttributions {
		return CategoryInformacion
	}
	return CategoryParcial
}
