package i18n

import "testing"

func TestGetCatalogFallback(t *testing.T) {
	base := GetCatalog("en-US")
	if base == nil {
		t.Fatal("expected base catalog")
	}
	if fallback := GetCatalog("missing-locale"); fallback != base {
		t.Fatal("expected fallback to en-US catalog")
	}
}

func TestLocalizeKnownCodes(t *testing.T) {
	if got := Localize("en-US", "UNAUTHORIZED", nil); got != "Please log in to continue." {
		t.Fatalf("Localize(UNAUTHORIZED) = %q", got)
	}
	if got := Localize("pt-BR", "UNAUTHORIZED", nil); got != "Faça login para continuar." {
		t.Fatalf("Localize(pt-BR UNAUTHORIZED) = %q", got)
	}
}

func TestLocalizeFallsBackToBaseLocaleForMissingCode(t *testing.T) {
	got := Localize("pt-BR", "WIZARD_STEP_INVALID", map[string]string{"Step": "shipping"})
	if got != "Unknown setup step shipping." {
		t.Fatalf("Localize = %q", got)
	}
}

func TestFormatFallbacks(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "hello {{.Name}}",
	})

	if cat.Format("unknown", nil) != "unknown" {
		t.Fatal("expected code fallback when template missing")
	}
	if cat.Format("code", nil) != "hello <no value>" {
		t.Fatal("expected template to render missing metadata")
	}
}

func TestFormatTemplateErrorFallback(t *testing.T) {
	cat := NewCatalog("test", map[Code]string{
		"code": "{{ if .Name }}",
	})
	if cat.Format("code", map[string]string{"Name": "X"}) != "{{ if .Name }}" {
		t.Fatal("expected template fallback on parse error")
	}
}

func TestGetCatalogCachesPerLocale(t *testing.T) {
	first := GetCatalog("pt-BR")
	if first.Locale() != "pt-BR" {
		t.Fatalf("locale = %q, want pt-BR", first.Locale())
	}
	if GetCatalog("pt-BR") != first {
		t.Fatal("expected the cached catalog on the second lookup")
	}
	if got := GetCatalog("fr-FR").Locale(); got != "en-US" {
		t.Fatalf("fallback locale = %q, want en-US", got)
	}
}
