package eco

import "fmt"

// Badge is an achievement unlocked by a single survey answer. The zero
// value is not a valid badge.
type Badge int

const (
	BadgeWalker Badge = iota + 1
	BadgeCyclist
	BadgeTransitRider
	BadgeCarFree
	BadgeZeroEmissions
	BadgePlantPowered
	BadgeHomeChef
	BadgeLocalHero
	BadgeMindfulShopper
	BadgeEcoBrandChampion
	BadgeBagHero
	BadgeEnergySaver
	BadgeSwitchOffPro
	BadgeEfficiencyExpert
	BadgeRefillChampion
	BadgeRecyclingStar
)

var badgeLabels = map[Badge]string{
	BadgeWalker:           "🚶‍♂️ Walker",
	BadgeCyclist:          "🚴 Cyclist",
	BadgeTransitRider:     "🚌 Transit Rider",
	BadgeCarFree:          "🚗 Car-Free",
	BadgeZeroEmissions:    "🌱 Zero Emissions",
	BadgePlantPowered:     "🥗 Plant-Powered",
	BadgeHomeChef:         "🍳 Home Chef",
	BadgeLocalHero:        "🌾 Local Hero",
	BadgeMindfulShopper:   "👕 Mindful Shopper",
	BadgeEcoBrandChampion: "🏷️ Eco Brand Champion",
	BadgeBagHero:          "🛍️ Bag Hero",
	BadgeEnergySaver:      "💡 Energy Saver",
	BadgeSwitchOffPro:     "🔌 Switch-Off Pro",
	BadgeEfficiencyExpert: "⚡ Efficiency Expert",
	BadgeRefillChampion:   "💧 Refill Champion",
	BadgeRecyclingStar:    "♻️ Recycling Star",
}

var badgesByLabel = func() map[string]Badge {
	m := make(map[string]Badge, len(badgeLabels))
	for b, label := range badgeLabels {
		m[label] = b
	}
	return m
}()

// String returns the display label.
func (b Badge) String() string {
	if label, ok := badgeLabels[b]; ok {
		return label
	}
	return fmt.Sprintf("Badge(%d)", int(b))
}

// MarshalText encodes the badge as its display label.
func (b Badge) MarshalText() ([]byte, error) {
	label, ok := badgeLabels[b]
	if !ok {
		return nil, fmt.Errorf("unknown badge %d", int(b))
	}
	return []byte(label), nil
}

// UnmarshalText accepts a display label produced by MarshalText.
func (b *Badge) UnmarshalText(text []byte) error {
	v, ok := badgesByLabel[string(text)]
	if !ok {
		return fmt.Errorf("unknown badge label %q", string(text))
	}
	*b = v
	return nil
}

// BadgeLabels converts badges to their display strings.
func BadgeLabels(badges []Badge) []string {
	out := make([]string, len(badges))
	for i, b := range badges {
		out[i] = b.String()
	}
	return out
}

type badgeRule struct {
	badge  Badge
	earned func(SurveyResponse) bool
}

var badgeRules = []badgeRule{
	{BadgeWalker, func(r SurveyResponse) bool { return r.Commute == CommuteWalk }},
	{BadgeCyclist, func(r SurveyResponse) bool { return r.Commute == CommuteCycle }},
	{BadgeTransitRider, func(r SurveyResponse) bool { return r.Commute == CommutePublic }},
	{BadgeCarFree, func(r SurveyResponse) bool { return r.RideHailing == RideNever }},
	{BadgeZeroEmissions, func(r SurveyResponse) bool { return r.WeeklyKm.Present() && r.WeeklyKm.Value() == 0 }},
	{BadgePlantPowered, func(r SurveyResponse) bool { return r.MeatConsumption == MeatNever }},
	{BadgeHomeChef, func(r SurveyResponse) bool { return r.EatingOut == EatOutNever }},
	{BadgeLocalHero, func(r SurveyResponse) bool { return r.OrganicFood == Always }},
	{BadgeMindfulShopper, func(r SurveyResponse) bool { return r.ClothesFrequency == ClothesRarely }},
	{BadgeEcoBrandChampion, func(r SurveyResponse) bool { return r.EcoBrands == Always }},
	{BadgeBagHero, func(r SurveyResponse) bool { return r.ReusableBags == Always }},
	{BadgeEnergySaver, func(r SurveyResponse) bool { return r.ElectricityBill == BillLow }},
	{BadgeSwitchOffPro, func(r SurveyResponse) bool { return r.SwitchOffAppliances == Always }},
	{BadgeEfficiencyExpert, func(r SurveyResponse) bool { return r.EnergyEfficient == CoverageAll }},
	{BadgeRefillChampion, func(r SurveyResponse) bool { return r.ReusableBottles == Always }},
	{BadgeRecyclingStar, func(r SurveyResponse) bool { return r.Recycling == Always }},
}

// badgesFor collects every earned badge once, in declaration order. The
// result is never nil so it serialises as [].
func badgesFor(r SurveyResponse) []Badge {
	seen := make(map[Badge]struct{}, len(badgeRules))
	out := []Badge{}
	for _, rule := range badgeRules {
		if !rule.earned(r) {
			continue
		}
		if _, dup := seen[rule.badge]; dup {
			continue
		}
		seen[rule.badge] = struct{}{}
		out = append(out, rule.badge)
	}
	return out
}
