package points

import "strings"

// Category is the semantic display group of a point.
type Category string

const (
	CategoryTemperature Category = "Temperature"
	CategoryPressure    Category = "Pressure"
	CategoryAirflow     Category = "Airflow"
	CategoryStatus      Category = "Status"
	CategoryControl     Category = "Control"
	CategorySetpoint    Category = "Setpoint"
	CategorySensor      Category = "Sensor"
	CategoryOther       Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryTemperature,
	CategoryPressure,
	CategoryAirflow,
	CategoryStatus,
	CategoryControl,
	CategorySetpoint,
	CategorySensor,
	CategoryOther,
}

type reasoningRule struct {
	substrings []string
	category   Category
}

// Order matters: a tag matching several rules takes the first.
var reasoningRules = []reasoningRule{
	{substrings: []string{"Temperature"}, category: CategoryTemperature},
	{substrings: []string{"Pressure"}, category: CategoryPressure},
	{substrings: []string{"Flow", "Airflow"}, category: CategoryAirflow},
	{substrings: []string{"Status", "Occupancy"}, category: CategoryStatus},
	{substrings: []string{"Speed", "Fan"}, category: CategoryControl},
}

// Categorize assigns a point to exactly one category.
//
// Reasoning tags are consulted before structural properties, so a writable
// point reasoned as a temperature is Temperature, not Setpoint.
func Categorize(p Point) Category {
	if category, ok := categorizeByReasoning(p.Reasoning); ok {
		return category
	}
	switch {
	case p.Writable:
		return CategorySetpoint
	case p.Kind == KindBool:
		return CategoryStatus
	case p.Unit != "":
		return CategorySensor
	default:
		return CategoryOther
	}
}

func categorizeByReasoning(reasoning []string) (Category, bool) {
	for _, tag := range reasoning {
		for _, rule := range reasoningRules {
			for _, sub := range rule.substrings {
				if strings.Contains(tag, sub) {
					return rule.category, true
				}
			}
		}
	}
	return "", false
}
