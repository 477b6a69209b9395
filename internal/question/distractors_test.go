package question

import "testing"

func TestDeriveOptionsRules(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		first string
	}{
		{"motivation keyword", "Pourquoi voulez-vous devenir Français ?", "Adhésion aux valeurs républicaines françaises"},
		{"motivation word", "Quelle est votre motivation ?", "Adhésion aux valeurs républicaines françaises"},
		{"frequency", "À quelle fréquence partez-vous ?", "Rarement, je vis principalement en France"},
		{"combien", "Combien de fois par an ?", "Rarement, je vis principalement en France"},
		{"marital", "Êtes-vous marié ?", "Oui, avec un(e) français(e)"},
		{"conjoint", "Quelle est la nationalité de votre conjoint ?", "Oui, avec un(e) français(e)"},
		{"generic fallback", "Qu'est-ce que la laïcité ?", "Réponse appropriée et détaillée"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := DeriveOptions(tc.text)
			if len(opts) != 4 {
				t.Fatalf("expected 4 options, got %d", len(opts))
			}
			if opts[0] != tc.first {
				t.Fatalf("expected first option %q, got %q", tc.first, opts[0])
			}
		})
	}
}

func TestDeriveOptionsIsCaseInsensitive(t *testing.T) {
	lower := DeriveOptions("pourquoi la France ?")
	upper := DeriveOptions("POURQUOI la France ?")
	if lower[0] != upper[0] {
		t.Fatalf("case should not change the rule match")
	}
}

func TestDeriveOptionsReturnsCopies(t *testing.T) {
	a := DeriveOptions("question quelconque")
	a[0] = "mutated"
	b := DeriveOptions("question quelconque")
	if b[0] == "mutated" {
		t.Fatalf("rule table leaked through returned slice")
	}
}
