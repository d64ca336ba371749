// Package slug generates short, human-memorable room identifiers.
package slug

import (
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

// adjectives and nouns are data, not part of the contract: any curated
// vocabulary of this size produces the same collision characteristics.
var adjectives = []string{
	"hot", "cold", "iced", "dark", "light", "sweet", "bitter", "frothy", "milky", "roasted",
	"decaf", "strong", "smooth", "creamy", "fresh", "bold", "rich", "steaming", "foamy", "tasty",
}

var nouns = []string{
	"coffee", "bean", "espresso", "latte", "mocha", "cappuccino", "brew", "roast", "cup", "mug",
	"barista", "aroma", "steam", "filter", "press", "macchiato", "americano", "cortado", "grind", "pour",
}

// New returns a slug of the form "<adjective>-<noun>-<n>", n in [0, 999].
func New() string {
	adj := adjectives[rand.IntN(len(adjectives))]
	noun := nouns[rand.IntN(len(nouns))]
	n := rand.IntN(1000)
	return adj + "-" + noun + "-" + strconv.Itoa(n)
}

// Fallback returns a random 128-bit ID in its canonical 36-character form,
// used once the caller has exhausted its collision-retry budget.
func Fallback() string {
	return uuid.NewString()
}
