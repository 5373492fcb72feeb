package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("sv-SE,sv;q=0.8") != "sv" {
		t.Fatalf("expected sv")
	}
	if DetectLanguage("fr-FR") != "sv" {
		t.Fatalf("expected sv fallback for unsupported language")
	}
	if DetectLanguage("") != "sv" {
		t.Fatalf("expected default sv")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "can't be blank" {
		t.Fatalf("expected english required")
	}
	if T("sv", "required") != "måste fyllas i" {
		t.Fatalf("expected swedish required")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to sv translation if exists
	if T("de", "required") != "måste fyllas i" {
		t.Fatalf("expected sv fallback for de lang")
	}
}

func TestLangContext(t *testing.T) {
	if LangFromContext(context.Background()) != Default {
		t.Fatalf("expected default language without value")
	}
	ctx := WithLang(context.Background(), English)
	if LangFromContext(ctx) != English {
		t.Fatalf("expected en from context")
	}
}
