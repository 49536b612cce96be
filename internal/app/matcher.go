package app

import "levelup-gatekeeper/internal/domain"

// Match returns the definition whose deck set equals the decks of the result.
// Order and duplicates are ignored. Definitions without decks never match.
func Match(decks []domain.Deck, ranks domain.RankStructure) (domain.QuizDefinition, bool) {
	names := make([]string, 0, len(decks))
	for _, deck := range decks {
		names = append(names, deck.ShortName)
	}
	played := toSet(names)
	if len(played) == 0 {
		return domain.QuizDefinition{}, false
	}
	for _, def := range ranks {
		if len(def.Decks) == 0 {
			continue
		}
		if sameSet(played, toSet(def.Decks)) {
			return def, true
		}
	}
	return domain.QuizDefinition{}, false
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	return containsAll(a, b)
}

// containsAll reports whether every key of sub is in super.
func containsAll(super, sub map[string]struct{}) bool {
	for key := range sub {
		if _, ok := super[key]; !ok {
			return false
		}
	}
	return true
}
