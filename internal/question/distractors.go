package question

import "strings"

// distractorRule maps keywords found in question text to a canned option set.
// Rules are evaluated in order; the first match wins. New rules are additive:
// append to the table, do not branch in code.
type distractorRule struct {
	keywords []string
	options  []string
}

var distractorRules = []distractorRule{
	{
		keywords: []string{"pourquoi", "motivation"},
		options: []string{
			"Adhésion aux valeurs républicaines françaises",
			"Raisons économiques uniquement",
			"Contrainte administrative",
			"Influence familiale",
		},
	},
	{
		keywords: []string{"fréquence", "combien"},
		options: []string{
			"Rarement, je vis principalement en France",
			"Très souvent, plusieurs fois par an",
			"Jamais, j'ai coupé tous les liens",
			"Seulement pour les urgences familiales",
		},
	},
	{
		keywords: []string{"marié", "conjoint"},
		options: []string{
			"Oui, avec un(e) français(e)",
			"Oui, avec un(e) étranger(ère)",
			"Non, je suis célibataire",
			"En couple mais pas marié(e)",
		},
	},
}

var genericOptions = []string{
	"Réponse appropriée et détaillée",
	"Réponse insuffisante",
	"Réponse contradictoire",
	"Pas de réponse",
}

// DeriveOptions synthesizes a four-option multiple-choice set from question
// text. The first option is always the expected one (correct index 0).
func DeriveOptions(text string) []string {
	lowered := strings.ToLower(text)
	for _, rule := range distractorRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return append([]string(nil), rule.options...)
			}
		}
	}
	return append([]string(nil), genericOptions...)
}
