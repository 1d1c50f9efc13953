package recipes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "metadata": {"version": "test"},
  "recipes": {
    "T4_BAG": {
      "tier": 4,
      "category": "accessories",
      "ingredients": [{"item_id": "T4_CLOTH", "quantity": 8}, {"item_id": "T4_LEATHER", "quantity": 8}],
      "station_type": "toolmaker",
      "crafting_time_seconds": 40,
      "focus_cost": 200
    },
    "T4_CLOTH": {
      "item_id": "T4_CLOTH",
      "ingredients": [{"item_id": "T4_FIBER", "quantity": 2}, {"item_id": "T3_CLOTH", "quantity": 1}],
      "resource_return_rate": 0.367
    }
  }
}`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"T4_BAG", "T4_CLOTH"}, c.Items())
	assert.Equal(t, "test", c.Metadata["version"])

	bag, ok := c.Get("T4_BAG")
	require.True(t, ok)
	assert.Equal(t, "T4_BAG", bag.OutputItem, "item id falls back to the map key")
	assert.Equal(t, 1, bag.OutputQuantity)
	assert.Equal(t, 4, bag.Tier)
	assert.Equal(t, 40, bag.CraftTimeSeconds)
	assert.Equal(t, "toolmaker", bag.StationRequirement)
	assert.Len(t, bag.Ingredients, 2)
	assert.Equal(t, "accessories", c.Category("T4_BAG"))

	cloth, _ := c.Get("T4_CLOTH")
	assert.Equal(t, 4, cloth.Tier, "tier parsed from item id")

	_, ok = c.Get("T4_FIBER")
	assert.False(t, ok)
}

func TestApplyDefaultReturnRate(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	c.ApplyDefaultReturnRate(0.15)

	bag, _ := c.Get("T4_BAG")
	cloth, _ := c.Get("T4_CLOTH")
	assert.Equal(t, 0.15, bag.ResourceReturnRate)
	assert.Equal(t, 0.367, cloth.ResourceReturnRate, "explicit rate is kept")
}

func TestDependencies(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	require.NoError(t, err)
	assert.Equal(t, []string{"T3_CLOTH", "T4_CLOTH", "T4_FIBER", "T4_LEATHER"}, c.Dependencies("T4_BAG"))
	assert.Empty(t, c.Dependencies("T4_FIBER"))
}

func TestValidate(t *testing.T) {
	c, err := Parse([]byte(`{"recipes": {
		"T4_A": {"ingredients": [{"item_id": "T4_A", "quantity": 1}]},
		"T4_B": {"ingredients": [{"item_id": "T4_ORE", "quantity": 0}], "resource_return_rate": 1.5},
		"T4_C": {"ingredients": []}
	}}`))
	require.NoError(t, err)

	rep := c.Validate()
	assert.False(t, rep.OK())
	assert.Len(t, rep.Errors, 4)
	assert.Contains(t, rep.Errors, "T4_A: recipe uses itself as ingredient")
	assert.Contains(t, rep.Errors, "T4_C: recipe has no ingredients")
	assert.Contains(t, rep.Warnings, "T4_B: ingredient T4_ORE has no recipe and must be bought")
}

func TestDefaultCatalogIsValid(t *testing.T) {
	c := Default()
	require.Greater(t, c.Len(), 10)
	rep := c.Validate()
	assert.True(t, rep.OK(), "errors: %v", rep.Errors)

	bag, ok := c.Get("T4_BAG")
	require.True(t, ok)
	assert.Equal(t, 4, bag.Tier)
	assert.Contains(t, c.Dependencies("T5_BAG"), "T4_LEATHER")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Parse([]byte("{"))
	assert.Error(t, err)
}
