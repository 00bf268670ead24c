package enrichment

// Weather condition labels.
const (
	ConditionClear        = "Clear"
	ConditionPartlyCloudy = "Partly Cloudy"
	ConditionFoggy        = "Foggy"
	ConditionRainy        = "Rainy"
	ConditionSnowy        = "Snowy"
	ConditionThunderstorm = "Thunderstorm"
)

var conditionByCode = map[int]string{
	1: ConditionPartlyCloudy, 2: ConditionPartlyCloudy, 3: ConditionPartlyCloudy,
	45: ConditionFoggy, 48: ConditionFoggy,
	51: ConditionRainy, 53: ConditionRainy, 55: ConditionRainy,
	61: ConditionRainy, 63: ConditionRainy, 65: ConditionRainy,
	71: ConditionSnowy, 73: ConditionSnowy, 75: ConditionSnowy,
	95: ConditionThunderstorm, 96: ConditionThunderstorm, 99: ConditionThunderstorm,
}

// Condition classifies a WMO weather code. Unmapped codes are Clear.
func Condition(code int) string {
	if c, ok := conditionByCode[code]; ok {
		return c
	}
	return ConditionClear
}
