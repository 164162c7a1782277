package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeList_Plain(t *testing.T) {
	t.Parallel()

	records, shape := normalizeList([]byte(`[{"id":"a"},{"id":"b"}]`))
	require.Equal(t, shapePlain, shape)
	require.Len(t, records, 2)
	require.Equal(t, "a", records[0].ID())
}

func TestNormalizeList_WrappedData(t *testing.T) {
	t.Parallel()

	records, shape := normalizeList([]byte(`{"data":[{"id":"a"}],"total":1}`))
	require.Equal(t, shapeWrapped, shape)
	require.Len(t, records, 1)
}

func TestNormalizeList_WrappedAltKey(t *testing.T) {
	t.Parallel()

	records, shape := normalizeList([]byte(`{"documents":[{"id":"a"},{"id":"b"}]}`), "documents")
	require.Equal(t, shapeWrapped, shape)
	require.Len(t, records, 2)
}

func TestNormalizeList_DataPreferredOverAltKey(t *testing.T) {
	t.Parallel()

	records, shape := normalizeList([]byte(`{"data":[{"id":"a"}],"documents":[{"id":"b"},{"id":"c"}]}`), "documents")
	require.Equal(t, shapeWrapped, shape)
	require.Len(t, records, 1)
	require.Equal(t, "a", records[0].ID())
}

func TestNormalizeList_Unrecognized(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`{"total":10}`,
		`"just a string"`,
		`42`,
		`{"data":"not a list"}`,
	} {
		records, shape := normalizeList([]byte(raw), "documents")
		require.Equal(t, shapeUnrecognized, shape, "raw=%s", raw)
		require.Empty(t, records)
	}
}

func TestNormalizeList_EmptyList(t *testing.T) {
	t.Parallel()

	records, shape := normalizeList([]byte(`[]`))
	require.Equal(t, shapePlain, shape)
	require.Empty(t, records)
}
