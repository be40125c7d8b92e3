package feature

// Ship schema: 12 continuous features and 5 label features, expanded to the
// 29 training columns before scaling and cluster assignment.

const (
	sectionShipNumeric     = "Numerical Indicators"
	sectionShipCategorical = "Categorical Indicators"
)

// Ship label vocabularies. Levels match the training dummy columns; aliases
// accept the shorter labels offered on the form.
var (
	// ShipType is the vessel class.
	ShipType = Levels("Bulk Carrier", "Container Ship", "Fish Carrier", "Tanker").WithAliases(map[string]string{
		"Bulk":      "Bulk Carrier",
		"Container": "Container Ship",
		"Fish":      "Fish Carrier",
	})
	// EngineType is the propulsion type.
	EngineType = Levels("Diesel", "Heavy Fuel Oil (HFO)", "Steam Turbine").WithAliases(map[string]string{
		"HFO": "Heavy Fuel Oil (HFO)",
	})
	// MaintenanceStatus is the last recorded maintenance grade.
	MaintenanceStatus = Levels("Good", "Fair", "Critical")
	// RouteType is the kind of voyage.
	RouteType         = Levels("Coastal", "Transoceanic", "Long-haul", "Short-haul").WithAliases(map[string]string{
		"Long haul":  "Long-haul",
		"short haul": "Short-haul",
		"Short haul": "Short-haul",
	})
	// WeatherCondition is the prevailing sea state.
	WeatherCondition = Levels("Calm", "Moderate", "Rough")
)

func label(name, section string, vocab *Vocabulary) Field {
	return Field{
		Name:         name,
		Label:        name,
		Kind:         KindLabel,
		Section:      section,
		Key:          true,
		Vocabulary:   vocab,
		DefaultLabel: vocab.Labels()[0],
	}
}

func measure(name, section string, min, max, step, def float64, text string) Field {
	return key(help(number(name, name, section, min, max, step, def), text))
}

// Ship is the vessel schema before one-hot expansion.
var Ship = mustSchema("ship",
	measure("Speed_Over_Ground_knots", sectionShipNumeric, 10.00975574, 24.99704335, 1, 17.50339954, "Speed over ground in knots"),
	measure("Engine_Power_kW", sectionShipNumeric, 501.0252196, 2998.734329, 100, 1757.610939, "Main engine power output during the voyage"),
	measure("Distance_Traveled_nm", sectionShipNumeric, 50.43314997, 1998.337057, 10, 1036.406203, "Total nautical miles covered on the voyage"),
	measure("Draft_meters", sectionShipNumeric, 5.001946569, 14.99294749, 1, 9.929102683, "Vertical depth of the hull below the waterline"),
	measure("Cargo_Weight_tons", sectionShipNumeric, 50.22962415, 1999.126697, 100, 1032.573264, "Total weight of cargo carried"),
	measure("Operational_Cost_USD", sectionShipNumeric, 10092.30632, 499734.8679, 1000, 255143.3445, "Total cost of operating the vessel for the voyage"),
	measure("Revenue_per_Voyage_USD", sectionShipNumeric, 50351.81445, 999916.6961, 100, 521362.062, "Income generated by the voyage"),
	measure("Turnaround_Time_hours", sectionShipNumeric, 12.01990927, 71.9724153, 1, 41.7475358, "Hours spent in port loading, unloading and refuelling"),
	measure("Efficiency_nm_per_kWh", sectionShipNumeric, 0.100211333, 1.499259399, 0.01, 0.79865557, "Nautical miles per kWh of energy"),
	measure("Seasonal_Impact_Score", sectionShipNumeric, 1.003816044, 1.499223608, 0.01, 1.003816044, "Seasonality effect on operations"),
	measure("Weekly_Voyage_Count", sectionShipNumeric, 1, 9, 0.1, 4.914839181, "Voyages completed in a typical week"),
	measure("Average_Load_Percentage", sectionShipNumeric, 50.01200505, 99.99964331, 1, 75.21922177, "Load as a percentage of total capacity"),
	label("Ship_Type", sectionShipCategorical, ShipType),
	label("Engine_Type", sectionShipCategorical, EngineType),
	label("Maintenance_Status", sectionShipCategorical, MaintenanceStatus),
	label("Route_Type", sectionShipCategorical, RouteType),
	label("Weather_Condition", sectionShipCategorical, WeatherCondition),
)

// ShipColumns is the training-time column order after one-hot expansion.
var ShipColumns = []string{
	"Speed_Over_Ground_knots",
	"Engine_Power_kW",
	"Distance_Traveled_nm",
	"Draft_meters",
	"Cargo_Weight_tons",
	"Operational_Cost_USD",
	"Revenue_per_Voyage_USD",
	"Turnaround_Time_hours",
	"Efficiency_nm_per_kWh",
	"Seasonal_Impact_Score",
	"Weekly_Voyage_Count",
	"Average_Load_Percentage",
	"Ship_Type_Bulk Carrier",
	"Ship_Type_Container Ship",
	"Ship_Type_Fish Carrier",
	"Ship_Type_Tanker",
	"Route_Type_Coastal",
	"Route_Type_Long-haul",
	"Route_Type_Short-haul",
	"Route_Type_Transoceanic",
	"Engine_Type_Diesel",
	"Engine_Type_Heavy Fuel Oil (HFO)",
	"Engine_Type_Steam Turbine",
	"Maintenance_Status_Critical",
	"Maintenance_Status_Fair",
	"Maintenance_Status_Good",
	"Weather_Condition_Calm",
	"Weather_Condition_Moderate",
	"Weather_Condition_Rough",
}

// ShipLayout expands Ship records to ShipColumns.
var ShipLayout = mustLayout(Ship, ShipColumns)
