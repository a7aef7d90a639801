package eco

import "math"

// Category identifies one of the five weighted survey sections.
type Category string

const (
	CategoryTravel   Category = "travel"
	CategoryFood     Category = "food"
	CategoryShopping Category = "shopping"
	CategoryEnergy   Category = "energy"
	CategoryHabits   Category = "habits"
)

// CategoryScore is the per-section breakdown behind a profile.
type CategoryScore struct {
	Category Category `json:"category"`
	Points   int      `json:"points"`
	Ceiling  int      `json:"ceiling"`
	Weight   int      `json:"weight"`
	XP       int      `json:"xp"`
}

type categorySpec struct {
	category Category
	weight   int
	ceiling  int
	points   func(SurveyResponse) int
	xp       func(SurveyResponse) int
}

// Weights sum to 100 and each ceiling equals its weight.
var categories = []categorySpec{
	{CategoryTravel, 30, 30, travelPoints, travelXP},
	{CategoryFood, 20, 20, foodPoints, foodXP},
	{CategoryShopping, 15, 15, shoppingPoints, shoppingXP},
	{CategoryEnergy, 20, 20, energyPoints, energyXP},
	{CategoryHabits, 15, 15, habitsPoints, habitsXP},
}

// Profile is the derived eco profile of one survey response.
type Profile struct {
	Score   int     `json:"score"`
	Persona Persona `json:"persona"`
	XP      int     `json:"xp"`
	Badges  []Badge `json:"badges"`
}

// ComputeProfile derives score, persona, XP and badges from r. It never
// fails: unknown or missing answers simply contribute nothing.
func ComputeProfile(r SurveyResponse) Profile {
	breakdown := CategoryBreakdown(r)
	score := combine(breakdown)

	xp := 0
	for _, c := range breakdown {
		xp += c.XP
	}
	xp += tierBonus(score)

	return Profile{
		Score:   score,
		Persona: PersonaFor(score),
		XP:      xp,
		Badges:  badgesFor(r),
	}
}

// Score is the score-only projection of ComputeProfile.
func Score(r SurveyResponse) int {
	return ComputeProfile(r).Score
}

// CategoryBreakdown returns the capped raw points and XP of every category,
// in travel, food, shopping, energy, habits order.
func CategoryBreakdown(r SurveyResponse) []CategoryScore {
	out := make([]CategoryScore, 0, len(categories))
	for _, spec := range categories {
		out = append(out, CategoryScore{
			Category: spec.category,
			Points:   min(spec.ceiling, spec.points(r)),
			Ceiling:  spec.ceiling,
			Weight:   spec.weight,
			XP:       spec.xp(r),
		})
	}
	return out
}

// combine normalises each category by its ceiling, weights it, and rounds
// once after summation.
func combine(breakdown []CategoryScore) int {
	var total float64
	maxPossible := 0
	for _, c := range breakdown {
		total += float64(c.Points*c.Weight) / float64(c.Ceiling)
		maxPossible += c.Weight
	}
	if maxPossible == 0 {
		return 0
	}
	score := int(math.Floor(total/float64(maxPossible)*100 + 0.5))
	return max(0, min(100, score))
}

func tierBonus(score int) int {
	switch {
	case score >= 80:
		return 50
	case score >= 60:
		return 30
	case score >= 40:
		return 20
	default:
		return 0
	}
}

func travelPoints(r SurveyResponse) int {
	var p int
	switch r.Commute {
	case CommuteWalk:
		p += 10
	case CommuteCycle:
		p += 9
	case CommutePublic:
		p += 7
	case CommuteBike:
		p += 5
	case CommuteCarpool:
		p += 4
	case CommuteCar:
		p += 2
	}
	switch r.RideHailing {
	case RideNever:
		p += 10
	case RideRarely:
		p += 7
	case RideFew:
		p += 4
	case RideDaily:
		p += 1
	}
	if r.WeeklyKm.Present() {
		switch km := r.WeeklyKm.Value(); {
		case km == 0:
			p += 10
		case km <= 50:
			p += 8
		case km <= 100:
			p += 6
		case km <= 200:
			p += 4
		default:
			p += 2
		}
	}
	return p
}

func foodPoints(r SurveyResponse) int {
	var p int
	switch r.MeatConsumption {
	case MeatNever:
		p += 8
	case MeatRarely:
		p += 6
	case MeatWeekly:
		p += 4
	case MeatDaily:
		p += 2
	}
	switch r.EatingOut {
	case EatOutNever:
		p += 6
	case EatOutMonthly:
		p += 5
	case EatOutWeekly:
		p += 3
	case EatOutDaily:
		p += 1
	}
	switch r.OrganicFood {
	case Always:
		p += 6
	case Often:
		p += 4
	case Sometimes:
		p += 2
	}
	return p
}

func shoppingPoints(r SurveyResponse) int {
	var p int
	switch r.ClothesFrequency {
	case ClothesRarely:
		p += 5
	case ClothesSeasonally:
		p += 4
	case ClothesMonthly:
		p += 2
	case ClothesWeekly:
		p += 1
	}
	p += brandOrBagPoints(r.EcoBrands)
	p += brandOrBagPoints(r.ReusableBags)
	return p
}

func brandOrBagPoints(f Frequency) int {
	switch f {
	case Always:
		return 5
	case Often:
		return 3
	case Sometimes:
		return 2
	default:
		return 0
	}
}

func energyPoints(r SurveyResponse) int {
	var p int
	switch r.ElectricityBill {
	case BillLow:
		p += 8
	case BillMedium:
		p += 5
	case BillHigh:
		p += 2
	}
	switch r.SwitchOffAppliances {
	case Always:
		p += 6
	case Often:
		p += 4
	case Sometimes:
		p += 2
	}
	switch r.EnergyEfficient {
	case CoverageAll:
		p += 6
	case CoverageMost:
		p += 4
	case CoverageSome:
		p += 2
	}
	return p
}

func habitsPoints(r SurveyResponse) int {
	var p int
	switch r.ReusableBottles {
	case Always:
		p += 8
	case Often:
		p += 5
	case Sometimes:
		p += 3
	}
	switch r.Recycling {
	case Always:
		p += 7
	case Often:
		p += 5
	case Sometimes:
		p += 3
	}
	return p
}
