package pipeline

import (
	"strings"
	"testing"
)

func TestArticleContent_PrefersArticleElement(t *testing.T) {
	page := `<html><head>
<title>El BCE mantiene los tipos | EL PAÍS</title>
<script>var tracking = true;</script>
</head><body>
<nav>Portada Economía Opinión</nav>
<article>
<h1>El BCE mantiene los tipos</h1>
<p>El presidente anunció la decisión, según fuentes del organismo.</p>
<p>Los analistas esperaban el movimiento.</p>
</article>
<footer>Aviso legal</footer>
</body></html>`

	title, text, err := ArticleContent(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if title != "El BCE mantiene los tipos | EL PAÍS" {
		t.Errorf("Unexpected title: %q", title)
	}

	want := "El BCE mantiene los tipos\n" +
		"El presidente anunció la decisión, según fuentes del organismo.\n" +
		"Los analistas esperaban el movimiento."
	if text != want {
		t.Errorf("Unexpected text:\n%q\nwant:\n%q", text, want)
	}

	for _, furniture := range []string{"Portada", "Aviso legal", "tracking"} {
		if strings.Contains(text, furniture) {
			t.Errorf("Expected %q to be dropped, text = %q", furniture, text)
		}
	}
}

func TestArticleContent_BodyFallback(t *testing.T) {
	page := `<html><head><title>t</title></head><body>
<nav>menu</nav>
<p>Primer párrafo.</p>
<div>Segundo bloque.</div>
</body></html>`

	_, text, err := ArticleContent(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := "Primer párrafo.\nSegundo bloque."
	if text != want {
		t.Errorf("Unexpected text: %q, want %q", text, want)
	}
}

func TestArticleContent_TitleFallsBackToHeading(t *testing.T) {
	page := `<html><body><article><h1>Titular del día</h1><p>Cuerpo.</p></article></body></html>`

	title, _, err := ArticleContent(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if title != "Titular del día" {
		t.Errorf("Unexpected title: %q", title)
	}
}

func TestArticleContent_InlineMarkupJoins(t *testing.T) {
	page := `<html><body><p>Dijo <strong>Pedro Sánchez</strong> ayer.</p></body></html>`

	_, text, err := ArticleContent(page)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "Dijo Pedro Sánchez ayer." {
		t.Errorf("Unexpected text: %q", text)
	}
}

func TestArticleContent_Empty(t *testing.T) {
	title, text, err := ArticleContent("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if title != "" || text != "" {
		t.Errorf("Expected empty results, got %q / %q", title, text)
	}
}
