// Package catalog implements the deterministic query pipeline over an owner's
// card collection: validation, include/exclude filtering, duplicate-only
// restriction, and a fixed total sort order. All operations produce new
// slices; fetched records are never mutated.
package catalog

import "strings"

// Rarity is the closed set of card rarity tiers. Values are canonical
// lowercase; use ParseRarity to normalize external input.
type Rarity string

const (
	RarityStandard  Rarity = "standard"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

// rarityOrder fixes the total order over the rarity set, lowest tier first.
var rarityOrder = map[Rarity]int{
	RarityStandard:  0,
	RarityUncommon:  1,
	RarityRare:      2,
	RarityEpic:      3,
	RarityLegendary: 4,
	RarityMythic:    5,
}

// ParseRarity normalizes an external rarity string. The result may be outside
// the closed set; callers gate on Known.
func ParseRarity(s string) Rarity {
	return Rarity(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether the value belongs to the closed rarity set.
func (r Rarity) Known() bool {
	_, ok := rarityOrder[r]
	return ok
}

// rank returns the tier position, higher for rarer. Unknown values rank below
// every known tier; Validate keeps them out of sorted results.
func (r Rarity) rank() int {
	if n, ok := rarityOrder[r]; ok {
		return n
	}
	return -1
}

// Condition is the closed set of card condition grades, canonical lowercase.
type Condition string

const (
	ConditionPristine  Condition = "pristine"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionPlayed    Condition = "played"
	ConditionDamaged   Condition = "damaged"
)

// conditionOrder fixes the total order over the condition set, best grade first.
var conditionOrder = map[Condition]int{
	ConditionPristine:  0,
	ConditionExcellent: 1,
	ConditionGood:      2,
	ConditionPlayed:    3,
	ConditionDamaged:   4,
}

// ParseCondition normalizes an external condition string. The result may be
// outside the closed set; callers gate on Known.
func ParseCondition(s string) Condition {
	return Condition(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether the value belongs to the closed condition set.
func (c Condition) Known() bool {
	_, ok := conditionOrder[c]
	return ok
}

// rank returns the grade position, lower for better condition. Unknown values
// rank after damaged; Validate keeps them out of sorted results.
func (c Condition) rank() int {
	if n, ok := conditionOrder[c]; ok {
		return n
	}
	return len(conditionOrder)
}

// Item is one owned card. ImageKey identifies the printed artwork and drives
// duplicate detection; Code is the short human-readable label shown in the
// code catalog. Neither is the primary key, ID is.
type Item struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Group     string    `json:"group"`
	Rarity    Rarity    `json:"rarity"`
	Condition Condition `json:"condition"`
	Code      string    `json:"code"`
	ImageKey  string    `json:"image_key"`
}

// Valid reports whether the item carries the fields every query result must
// have: non-empty name and group, and rarity/condition inside their closed
// sets. Unknown enum values are rejected here rather than silently ranked,
// which is the malformed-field policy for the whole pipeline.
func (it Item) Valid() bool {
	return strings.TrimSpace(it.Name) != "" &&
		strings.TrimSpace(it.Group) != "" &&
		it.Rarity.Known() &&
		it.Condition.Known()
}

// searchFields returns the folded field values a term can match against.
func (it Item) searchFields() [5]string {
	return [5]string{
		strings.ToLower(it.Name),
		strings.ToLower(it.Group),
		strings.ToLower(string(it.Rarity)),
		strings.ToLower(string(it.Condition)),
		strings.ToLower(it.Code),
	}
}
