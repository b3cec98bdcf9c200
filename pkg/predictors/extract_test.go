package predictors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractYieldArgs_ParsesEndToEndScenarioQuery(t *testing.T) {
	query := "Predict wheat yield in Punjab with 800mm rainfall, 120 kg fertilizer, 2 hectares."

	args := ExtractYieldArgs(query)

	assert.Equal(t, "wheat", args["crop"])
	assert.Equal(t, "Punjab", args["region"])
	assert.Equal(t, 800.0, args["rainfall_mm"])
	assert.Equal(t, 120.0, args["fertilizer_kg"])
	assert.Equal(t, 2.0, args["area_ha"])
}

func TestExtractYieldArgs_MissingFieldsAreOmittedNotZeroed(t *testing.T) {
	args := ExtractYieldArgs("tell me about farming")
	assert.NotContains(t, args, "crop")
	assert.NotContains(t, args, "rainfall_mm")
}

func TestExtractMoistureArgs_ParsesTemperatureHumidityRainfallAndSoil(t *testing.T) {
	query := "What's the soil moisture at 28C with 65% humidity, 40mm rainfall, clay soil?"

	args := ExtractMoistureArgs(query)

	assert.Equal(t, 28.0, args["temperature_c"])
	assert.Equal(t, 65.0, args["humidity_pct"])
	assert.Equal(t, 40.0, args["rainfall_mm"])
	assert.Equal(t, "clay", args["soil_type"])
}

func TestExtractNutrientsArgs_ParsesNPKAndPH(t *testing.T) {
	query := "Recommend a crop for nitrogen 80, phosphorus 40, potassium 60, ph 6.2, 30C, 55% humidity, 900mm rainfall"

	args := ExtractNutrientsArgs(query)

	assert.Equal(t, 80.0, args["nitrogen_ppm"])
	assert.Equal(t, 40.0, args["phosphorus_ppm"])
	assert.Equal(t, 60.0, args["potassium_ppm"])
	assert.Equal(t, 6.2, args["ph"])
	assert.Equal(t, 30.0, args["temperature_c"])
	assert.Equal(t, 55.0, args["humidity_pct"])
	assert.Equal(t, 900.0, args["rainfall_mm"])
}

func TestExtractClimateArgs_ParsesRegionAndClimate(t *testing.T) {
	query := "What crop suits the climate in Kerala with 32C, 80% humidity, 2500mm rainfall?"

	args := ExtractClimateArgs(query)

	assert.Equal(t, "Kerala", args["region"])
	assert.Equal(t, 32.0, args["temperature_c"])
	assert.Equal(t, 80.0, args["humidity_pct"])
	assert.Equal(t, 2500.0, args["rainfall_mm"])
}

func TestExtractFertilityArgs_ParsesNPKPHAndOrganicCarbon(t *testing.T) {
	query := "Score soil fertility: nitrogen 100, phosphorus 50, potassium 120, ph 6.8, organic carbon 2.1%"

	args := ExtractFertilityArgs(query)

	assert.Equal(t, 100.0, args["nitrogen_ppm"])
	assert.Equal(t, 50.0, args["phosphorus_ppm"])
	assert.Equal(t, 120.0, args["potassium_ppm"])
	assert.Equal(t, 6.8, args["ph"])
	assert.Equal(t, 2.1, args["organic_carbon_pct"])
}

func TestExtractPestArgs_EmptyImageOmitsKey(t *testing.T) {
	assert.Empty(t, ExtractPestArgs(""))

	args := ExtractPestArgs("Zm9v")
	assert.Equal(t, "Zm9v", args["image_base64"])
}
