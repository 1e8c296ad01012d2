package words_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stevemurr/words-log/words"
)

func TestHashKnownValues(t *testing.T) {
	// Values produced by the browser implementation.
	tests := []struct {
		in   string
		want string
	}{
		{"", "811c9dc5"},
		{"a", "e40c292c"},
		{"cat", "6745c07"},
		{"Cat", "68fef3a7"},
		{"run", "2acd4eca"},
		{"hello", "4f9f2cab"},
		{"café", "3308be7c"},
		{"日本", "5ffcbea4"},
		{"😀", "cb31c4b8"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, words.Hash(tc.in))
		})
	}
}

func TestHashDeterministic(t *testing.T) {
	for _, s := range []string{"serendipity", "ephemeral", "", "x y z"} {
		assert.Equal(t, words.Hash(s), words.Hash(s))
	}
}

func TestHashNoCollisionsInVocabulary(t *testing.T) {
	vocab := []string{
		"abate", "aberrant", "abeyance", "abscond", "abstemious", "admonish",
		"adulterate", "aesthetic", "aggregate", "alacrity", "alleviate",
		"amalgamate", "ambiguous", "ambivalence", "ameliorate", "anachronism",
		"analogous", "anarchy", "anomalous", "antipathy", "apathy", "appease",
		"apprise", "approbation", "appropriate", "arduous", "artless", "ascetic",
		"assiduous", "assuage", "attenuate", "audacious", "austere", "autonomous",
		"aver", "banal", "belie", "beneficent", "bolster", "bombastic", "boorish",
		"burgeon", "burnish", "buttress", "cacophonous", "capricious", "castigation",
		"catalyst", "caustic", "chicanery", "coagulate", "coda", "cogent",
		"commensurate", "compendium", "complaisant", "compliant", "conciliatory",
		"condone", "confound", "connoisseur", "contention", "contentious",
		"contrite", "conundrum", "converge", "convoluted", "craven", "daunt",
		"decorum", "default", "deference", "delineate", "denigrate", "deride",
		"derivative", "desiccate", "desultory", "deterrent", "diatribe", "dichotomy",
		"diffidence", "diffuse", "digression", "dirge", "disabuse", "discerning",
		"cat", "Cat", "CAT", "cats", "act", "tac", "run", "urn", "nur",
	}
	seen := make(map[string]string, len(vocab))
	for _, w := range vocab {
		id := words.Hash(w)
		if prev, ok := seen[id]; ok {
			t.Fatalf("collision: %q and %q both hash to %s", prev, w, id)
		}
		seen[id] = w
	}
}
