package feature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandShipTanker(t *testing.T) {
	rec, err := Assemble(Ship, Ship.Defaults(), map[string]interface{}{"Ship_Type": "Tanker"})
	require.NoError(t, err)

	row, err := ShipLayout.ExpandMap(rec)
	require.NoError(t, err)
	require.Len(t, row, 29)

	assert.Equal(t, 1.0, row["Ship_Type_Tanker"])
	for col, v := range row {
		if strings.HasPrefix(col, "Ship_Type_") && col != "Ship_Type_Tanker" {
			assert.Equal(t, 0.0, v, col)
		}
	}

	vec, err := ShipLayout.Expand(rec)
	require.NoError(t, err)
	require.Len(t, vec, len(ShipColumns))
	assert.Equal(t, ShipColumns, ShipLayout.Columns())
	assert.Equal(t, 1.0, vec[15])
}

func TestExpandUnknownLevelIsZero(t *testing.T) {
	rec, err := Assemble(Ship, Ship.Defaults(), map[string]interface{}{"Weather_Condition": "Hurricane"})
	require.NoError(t, err)

	row, err := ShipLayout.ExpandMap(rec)
	require.NoError(t, err)
	assert.Equal(t, 0.0, row["Weather_Condition_Calm"])
	assert.Equal(t, 0.0, row["Weather_Condition_Moderate"])
	assert.Equal(t, 0.0, row["Weather_Condition_Rough"])
}

func TestExpandAliases(t *testing.T) {
	rec, err := Assemble(Ship, Ship.Defaults(), map[string]interface{}{
		"Ship_Type":   "Bulk",
		"Engine_Type": "HFO",
		"Route_Type":  "Long haul",
	})
	require.NoError(t, err)

	row, err := ShipLayout.ExpandMap(rec)
	require.NoError(t, err)
	assert.Equal(t, 1.0, row["Ship_Type_Bulk Carrier"])
	assert.Equal(t, 1.0, row["Engine_Type_Heavy Fuel Oil (HFO)"])
	assert.Equal(t, 1.0, row["Route_Type_Long-haul"])
}

func TestExpandDefaultsSetOneLevelPerFeature(t *testing.T) {
	rec, err := Assemble(Ship, Ship.Defaults(), nil)
	require.NoError(t, err)
	vec, err := ShipLayout.Expand(rec)
	require.NoError(t, err)

	ones := 0
	for _, v := range vec[12:] {
		if v == 1 {
			ones++
		}
	}
	assert.Equal(t, 5, ones)
	assert.Equal(t, 17.50339954, vec[0])
}

func TestExpandRejectsForeignRecord(t *testing.T) {
	rec, err := Assemble(Cancer, Cancer.Defaults(), nil)
	require.NoError(t, err)
	_, err = ShipLayout.Expand(rec)
	assert.Error(t, err)
}

func TestNewLayoutValidatesColumns(t *testing.T) {
	_, err := NewLayout(Ship, ShipColumns[:28])
	assert.Error(t, err)

	cols := append([]string(nil), ShipColumns...)
	cols[12] = "Ship_Type_Bulk"
	_, err = NewLayout(Ship, cols)
	assert.Error(t, err)
}

func TestExpandAliasDefault(t *testing.T) {
	defaults := Ship.Defaults().Merge(nil, map[string]string{"Ship_Type": "Bulk", "Engine_Type": "HFO"})
	rec, err := Assemble(Ship, defaults, nil)
	require.NoError(t, err)

	row, err := ShipLayout.ExpandMap(rec)
	require.NoError(t, err)
	assert.Equal(t, 1.0, row["Ship_Type_Bulk Carrier"])
	assert.Equal(t, 1.0, row["Engine_Type_Heavy Fuel Oil (HFO)"])
}
