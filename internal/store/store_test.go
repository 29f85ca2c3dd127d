package store

import (
	"testing"
	"time"

	"github.com/prensalab/veedor/internal/classify"
	"github.com/prensalab/veedor/internal/model"
)

func testReport(subject, url string) *model.Report {
	report := model.NewReport(subject)
	report.SourceURL = url
	report.Outlet = "EL PAÍS"
	report.Category = classify.CategoryInformacion
	report.Attribution = model.Attribution{
		Reporters: []string{"Pedro Sánchez"},
		Sources:   []string{"CIS"},
		Entities:  []string{"Madrid"},
		Strategy:  "role",
	}
	return report
}

func TestStore_SaveAndRecent(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = s.Close() }()

	first := testReport("primer artículo", "https://example.com/a")
	second := testReport("segundo artículo", "https://example.com/b")
	second.FetchedAt = first.FetchedAt.Add(time.Minute)

	if err := s.Save(first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := s.Save(second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	// Newest first
	if entries[0].Subject != "segundo artículo" {
		t.Errorf("expected newest entry first, got %q", entries[0].Subject)
	}
	if entries[1].Subject != "primer artículo" {
		t.Errorf("expected oldest entry last, got %q", entries[1].Subject)
	}
	if entries[0].Category != string(classify.CategoryInformacion) {
		t.Errorf("unexpected category: %q", entries[0].Category)
	}
	if entries[0].Strategy != "role" {
		t.Errorf("unexpected strategy: %q", entries[0].Strategy)
	}
}

func TestStore_RecentLimit(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = s.Close() }()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		r := testReport("artículo", "https://example.com/n")
		r.FetchedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.Save(r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	entries, err := s.Recent(3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}

	count, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Errorf("expected count 5, got %d", count)
	}
}

func TestStore_ByURL(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Save(testReport("uno", "https://example.com/a")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(testReport("dos", "https://example.com/b")); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := s.ByURL("https://example.com/a")
	if err != nil {
		t.Fatalf("by url: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Subject != "uno" {
		t.Errorf("unexpected subject: %q", entries[0].Subject)
	}

	none, err := s.ByURL("https://example.com/missing")
	if err != nil {
		t.Fatalf("by url: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no entries, got %d", len(none))
	}
}

func TestStore_ReportRoundTrip(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = s.Close() }()

	original := testReport("ronda completa", "https://example.com/r")
	if err := s.Save(original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.Report(original.ID)
	if err != nil {
		t.Fatalf("load report: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected stored report, got nil")
	}
	if loaded.Subject != original.Subject {
		t.Errorf("subject mismatch: %q vs %q", loaded.Subject, original.Subject)
	}
	if len(loaded.Attribution.Reporters) != 1 || loaded.Attribution.Reporters[0] != "Pedro Sánchez" {
		t.Errorf("attribution did not survive round trip: %+v", loaded.Attribution)
	}
	if loaded.Category != classify.CategoryInformacion {
		t.Errorf("category mismatch: %q", loaded.Category)
	}

	missing, err := s.Report("no-such-id")
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown id, got %+v", missing)
	}
}
