package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRarity_NormalizesCase(t *testing.T) {
	require.Equal(t, RarityMythic, ParseRarity("  Mythic "))
	require.True(t, ParseRarity("LEGENDARY").Known())
	require.False(t, ParseRarity("mythical").Known())
	require.False(t, ParseRarity("").Known())
}

func TestParseCondition_NormalizesCase(t *testing.T) {
	require.Equal(t, ConditionPristine, ParseCondition("Pristine"))
	require.True(t, ParseCondition(" played ").Known())
	require.False(t, ParseCondition("okay").Known())
}

func TestItemValid_RejectsMissingAndUnknownFields(t *testing.T) {
	base := Item{
		ID:        "c-1",
		Name:      "Ember Drake",
		Group:     "Cinderfall",
		Rarity:    RarityRare,
		Condition: ConditionGood,
	}
	require.True(t, base.Valid())

	cases := map[string]func(Item) Item{
		"empty name":        func(it Item) Item { it.Name = ""; return it },
		"blank group":       func(it Item) Item { it.Group = "   "; return it },
		"unknown rarity":    func(it Item) Item { it.Rarity = "foil"; return it },
		"unknown condition": func(it Item) Item { it.Condition = "okay"; return it },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			require.False(t, mutate(base).Valid())
		})
	}
}

func TestItemValid_CodeAndImageKeyOptional(t *testing.T) {
	it := Item{
		ID:        "c-2",
		Name:      "Moss Sentinel",
		Group:     "Verdant",
		Rarity:    RarityStandard,
		Condition: ConditionDamaged,
	}
	require.True(t, it.Valid())
}
