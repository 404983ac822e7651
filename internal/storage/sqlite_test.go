package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"mcpbinder/internal/catalog"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteResolveOwner_ByHandleAndID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddOwner(ctx, Owner{ID: "o-1", Handle: "Kara"}))

	for _, ref := range []string{"kara", "Kara", "@Kara", " @KARA ", "o-1"} {
		o, err := s.ResolveOwner(ctx, ref)
		require.NoError(t, err, "ref %q", ref)
		require.Equal(t, "o-1", o.ID)
		require.Equal(t, "kara", o.Handle)
		require.Equal(t, "Kara", o.DisplayName)
	}

	_, err := s.ResolveOwner(ctx, "@nobody")
	require.ErrorIs(t, err, ErrOwnerNotFound)
	_, err = s.ResolveOwner(ctx, "  ")
	require.ErrorIs(t, err, ErrOwnerNotFound)
}

func TestSQLiteAddOwner_RejectsDuplicateFoldedHandle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddOwner(ctx, Owner{ID: "o-1", Handle: "Kara"}))
	require.Error(t, s.AddOwner(ctx, Owner{ID: "o-2", Handle: "KARA"}))
}

func TestSQLiteFetchItems_NormalizesEnums(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddOwner(ctx, Owner{ID: "o-1", Handle: "kara"}))
	require.NoError(t, s.AddCard(ctx, catalog.Item{
		ID:        "c-1",
		OwnerID:   "o-1",
		Name:      "Ember Drake",
		Group:     "Cinderfall",
		Rarity:    catalog.Rarity("Mythic"),
		Condition: catalog.Condition(" Pristine "),
		Code:      "ED-01",
		ImageKey:  "art-ember",
	}))

	items, err := s.FetchItems(ctx, "o-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, catalog.RarityMythic, items[0].Rarity)
	require.Equal(t, catalog.ConditionPristine, items[0].Condition)
	require.True(t, items[0].Valid())
}

func TestSQLiteFetchItems_UnknownOwnerIsEmpty(t *testing.T) {
	s := newTestStore(t)
	items, err := s.FetchItems(context.Background(), "missing")
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestSQLiteListOwners_OrderedByHandle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, o := range []Owner{
		{ID: "o-3", Handle: "zoe"},
		{ID: "o-1", Handle: "arlo"},
		{ID: "o-2", Handle: "kara"},
	} {
		require.NoError(t, s.AddOwner(ctx, o))
	}

	owners, err := s.ListOwners(ctx)
	require.NoError(t, err)
	require.Len(t, owners, 3)
	require.Equal(t, "arlo", owners[0].Handle)
	require.Equal(t, "kara", owners[1].Handle)
	require.Equal(t, "zoe", owners[2].Handle)
}
