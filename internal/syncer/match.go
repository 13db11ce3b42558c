package syncer

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// SimilarityThreshold is the minimum normalized-edit-distance similarity
// for two names to count as the same game.
const SimilarityThreshold = 0.70

// stopWords are dropped during name normalization.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "with": true,
}

// editionAliases map equivalent edition suffixes in normalized form
// (stop words already removed). Both directions are checked, so each
// pair is listed once.
var editionAliases = [][2]string{
	{"goty", "game year"},
	{"goty edition", "game year edition"},
	{"deluxe", "deluxe edition"},
	{"ultimate", "ultimate edition"},
	{"remastered", "remaster"},
	{"enhanced", "enhanced edition"},
	{"definitive", "definitive edition"},
	{"directors cut", "director s cut"},
	{"complete", "complete edition"},
}

// titleFamilies lists, per Steam title id, the normalized substrings a
// non-Steam name may use for that game. Several spellings per id cover
// common abbreviations.
var titleFamilies = map[uint32][]string{
	239140: {"dying light"},
	881020: {"dying light"},
	271590: {"grand theft auto", "gta"},
	730:    {"counter strike", "cs go"},
	440:    {"team fortress"},
	570:    {"dota"},
}

// normalizeName lowercases, converts punctuation to spaces, and drops
// stop words, producing a canonical token string for comparison.
func normalizeName(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			kept = append(kept, w)
		}
	}

	return strings.Join(kept, " ")
}

// IsLikelySameGame decides whether two display names refer to the same
// game. Checks run cheapest first: exact normalized equality, substring
// containment, edition aliases, the title-family table, then edit
// distance.
func IsLikelySameGame(a, b string, titleID *uint32) bool {
	na := normalizeName(a)
	nb := normalizeName(b)

	if na == "" || nb == "" {
		return false
	}

	if na == nb {
		return true
	}

	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	if matchesAlias(na, nb) {
		return true
	}

	// The id identifies the first name's family; the second name only has
	// to mention it. Catches DLC and edition variants whose titles share
	// no words with the base game.
	if titleID != nil {
		for _, family := range titleFamilies[*titleID] {
			if strings.Contains(nb, family) {
				return true
			}
		}
	}

	return similarity(na, nb) > SimilarityThreshold
}

// matchesAlias rewrites both names onto one side of each known edition
// alias and compares the canonical forms. The alias may appear anywhere
// in the name, not only as a suffix.
func matchesAlias(na, nb string) bool {
	for _, pair := range editionAliases {
		ca := strings.ReplaceAll(na, pair[0], pair[1])
		cb := strings.ReplaceAll(nb, pair[0], pair[1])
		if ca == cb || strings.Contains(ca, cb) || strings.Contains(cb, ca) {
			return true
		}
	}
	return false
}

// similarity converts Levenshtein distance to a 0..1 score relative to
// the longer string.
func similarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
