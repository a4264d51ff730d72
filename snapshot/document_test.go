package snapshot

import (
	"errors"
	"testing"
)

func TestParseDocumentMinimal(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"version": 1,
		"exportedAt": "2026-03-02T10:00:00Z",
		"source": "t1:b1",
		"tables": {
			"providers": [{"id": "p1", "name": "Acme"}]
		}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Tables.Providers) != 1 || doc.Tables.Providers[0].Name != "Acme" {
		t.Fatalf("providers not decoded: %+v", doc.Tables.Providers)
	}
	// absent tables come back as empty row sets
	if doc.Tables.Orders == nil && len(doc.Tables.Orders) != 0 {
		t.Fatalf("orders should be empty")
	}
	if len(doc.Tables.Weeks) != 0 {
		t.Fatalf("weeks should be empty, got %d", len(doc.Tables.Weeks))
	}
}

func TestParseDocumentUnknownTableIgnored(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
		"version": 1,
		"tables": {
			"providers": [{"id": "p1", "name": "Acme"}],
			"mystery_table": [{"id": "x"}]
		}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Tables.Providers) != 1 {
		t.Fatalf("providers lost")
	}
}

func TestParseDocumentRejectsWrongVersion(t *testing.T) {
	_, err := ParseDocument([]byte(`{"version": 2, "tables": {}}`))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want ParseError, got %v", err)
	}
}

func TestParseDocumentRejectsMissingTables(t *testing.T) {
	for _, raw := range []string{
		`{"version": 1}`,
		`{"version": 1, "tables": null}`,
	} {
		if _, err := ParseDocument([]byte(raw)); err == nil {
			t.Fatalf("accepted %s", raw)
		}
	}
}

func TestParseDocumentRejectsNonArrayTable(t *testing.T) {
	_, err := ParseDocument([]byte(`{"version": 1, "tables": {"orders": {"id": "o1"}}}`))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want ParseError, got %v", err)
	}
}

func TestParseDocumentRejectsGarbage(t *testing.T) {
	if _, err := ParseDocument([]byte(`not json`)); err == nil {
		t.Fatal("accepted garbage")
	}
}
