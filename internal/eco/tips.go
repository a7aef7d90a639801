package eco

// FallbackTip is returned when no specific tip applies.
const FallbackTip = "Start with small changes - every step counts! 🌱"

type tipRule struct {
	applies func(SurveyResponse) bool
	text    string
}

var tipRules = []tipRule{
	{func(r SurveyResponse) bool { return r.Commute == CommuteCar || r.RideHailing == RideDaily },
		"Try public transport twice a week → save ₹500 + 2kg CO₂"},
	{func(r SurveyResponse) bool { return r.WeeklyKm.Present() && r.WeeklyKm.Value() > 100 },
		"Consider carpooling or cycling for short trips → reduce emissions"},
	{func(r SurveyResponse) bool { return r.MeatConsumption == MeatDaily },
		"Have one meat-free day per week → reduce carbon footprint by 15%"},
	{func(r SurveyResponse) bool { return r.EatingOut == EatOutDaily },
		"Cook at home more often → save money and reduce packaging waste"},
	{func(r SurveyResponse) bool { return r.ClothesFrequency == ClothesWeekly },
		"Buy second-hand items this month → save money and resources"},
	{func(r SurveyResponse) bool { return r.EcoBrands == Never },
		"Try one eco-friendly brand → support sustainable businesses"},
	{func(r SurveyResponse) bool { return r.ElectricityBill == BillHigh },
		"Switch to LED bulbs → save ₹200/month on electricity"},
	{func(r SurveyResponse) bool { return r.SwitchOffAppliances == Never },
		"Turn off appliances when not in use → reduce energy waste"},
	{func(r SurveyResponse) bool { return r.ReusableBottles == Never },
		"Get a reusable water bottle → save ₹50/week on bottled water"},
	{func(r SurveyResponse) bool { return r.Recycling == Never },
		"Start recycling paper and plastic → reduce landfill waste"},
}

// Tips returns the personalised tips for r in a fixed order, or a single
// fallback tip when none applies. The score is accepted for callers that
// already computed it; no current rule depends on it.
func Tips(r SurveyResponse, score int) []string {
	var tips []string
	for _, rule := range tipRules {
		if rule.applies(r) {
			tips = append(tips, rule.text)
		}
	}
	if len(tips) == 0 {
		return []string{FallbackTip}
	}
	return tips
}
