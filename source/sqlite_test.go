package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arloliu/schemsearch/errs"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "schematics.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	nodes := []Node{
		{ID: 1, Name: "Castle", Owner: 10},
		{ID: 2, Name: "castle_ruins", Owner: 11},
		{ID: 3, Name: "Tower", Owner: 10},
		{ID: 4, Name: "100%_farm", Owner: 12},
	}
	for _, n := range nodes {
		require.NoError(t, store.Put(ctx, n, []byte(n.Name)))
	}

	return store
}

func nodeIDs(nodes []Node) []int64 {
	ids := make([]int64, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}

	return ids
}

func TestSQLStore_List(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"all", Filter{}, []int64{1, 2, 3, 4}},
		{"owner", Filter{Owners: []int64{10}}, []int64{1, 3}},
		{"owners_or", Filter{Owners: []int64{11, 12}}, []int64{2, 4}},
		{"name_substring_case_insensitive", Filter{Names: []string{"CASTLE"}}, []int64{1, 2}},
		{"names_or", Filter{Names: []string{"tow", "ruin"}}, []int64{2, 3}},
		{"owner_and_name", Filter{Owners: []int64{10}, Names: []string{"castle"}}, []int64{1}},
		{"percent_is_literal", Filter{Names: []string{"%"}}, []int64{4}},
		{"underscore_is_literal", Filter{Names: []string{"e_r"}}, []int64{2}},
		{"quote_is_bound", Filter{Names: []string{"' OR 1=1 --"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := store.List(ctx, tt.filter)
			require.NoError(t, err)
			if tt.want == nil {
				require.Empty(t, nodes)
				return
			}
			require.Equal(t, tt.want, nodeIDs(nodes))
		})
	}
}

func TestSQLStore_LoadAndSources(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	data, err := store.Load(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []byte("Tower"), data)

	_, err = store.Load(ctx, 99)
	require.ErrorIs(t, err, errs.ErrIO)

	require.NoError(t, store.Put(ctx, Node{ID: 3, Name: "Tower v2", Owner: 10}, []byte("new")))
	sources, err := store.Sources(ctx, Filter{Names: []string{"tower"}})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.Equal(t, "Tower v2", sources[0].Name())

	data, err = sources[0].Open(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte("new"), data)
}

func TestOpenSQLite_Memory(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(context.Background(), Node{ID: 1, Name: "a", Owner: 1}, []byte{1}))
	nodes, err := store.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	_, err = OpenSQLite("")
	require.Error(t, err)
}
