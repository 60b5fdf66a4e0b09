package metadata

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborstack/apidocs/logger"
)

func testLogger() logger.Logger {
	return logger.NewWithWriter("debug", io.Discard)
}

func TestResolveModelsSortsAndDeduplicates(t *testing.T) {
	artifact := &Artifact{
		Module: "m",
		Models: []Model{
			{Name: "Zebra"},
			{Ref: "Alpha"},
			{Name: "Alpha"},
			{Name: "Alpha", Package: "dup"},
			{Ref: "Nowhere"},
		},
	}

	resolved := ResolveModels(artifact, testLogger())
	require.Len(t, resolved, 2)
	assert.Equal(t, "Alpha", resolved[0].Name)
	assert.Equal(t, "Zebra", resolved[1].Name)
	assert.Empty(t, resolved[0].Package, "first occurrence wins")
}

func TestResolveModelsNormalizesEnums(t *testing.T) {
	artifact := &Artifact{
		Module: "m",
		Models: []Model{
			{
				Name: "OrderDto",
				Properties: []Property{
					{
						Name: "Status",
						Type: "integer",
						Enum: map[string]any{
							"Shipped": 2,
							"Pending": 0,
							"Paid":    1,
							"0":       "Pending",
							"1.5":     "odd reverse key",
						},
					},
					{Name: "ID", Type: "integer"},
				},
			},
		},
	}

	resolved := ResolveModels(artifact, testLogger())
	require.Len(t, resolved, 1)

	status := resolved[0].Properties[0]
	assert.Equal(t, []string{"Paid", "Pending", "Shipped"}, status.EnumNames)
	assert.Equal(t, []any{1, 0, 2}, status.EnumValues())

	id := resolved[0].Properties[1]
	assert.Nil(t, id.EnumNames)
	assert.Nil(t, id.EnumValues())
}

func TestEnumValuesWithoutPriorNormalization(t *testing.T) {
	p := Property{Enum: map[string]any{"B": 2, "A": 1}}
	assert.Equal(t, []any{1, 2}, p.EnumValues())
}
