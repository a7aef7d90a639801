package eco

// XP tables are independent of the scoring tables; the tier bonus in
// tierBonus is added once on top of the category sum.

func travelXP(r SurveyResponse) int {
	var xp int
	switch r.Commute {
	case CommuteWalk:
		xp += 15
	case CommuteCycle:
		xp += 12
	case CommutePublic:
		xp += 10
	case CommuteBike:
		xp += 8
	case CommuteCarpool:
		xp += 6
	}
	switch r.RideHailing {
	case RideNever:
		xp += 10
	case RideRarely:
		xp += 7
	}
	if r.WeeklyKm.Present() {
		switch km := r.WeeklyKm.Value(); {
		case km == 0:
			xp += 15
		case km <= 50:
			xp += 12
		case km <= 100:
			xp += 8
		}
	}
	return xp
}

func foodXP(r SurveyResponse) int {
	var xp int
	switch r.MeatConsumption {
	case MeatNever:
		xp += 15
	case MeatRarely:
		xp += 10
	case MeatWeekly:
		xp += 5
	}
	switch r.EatingOut {
	case EatOutNever:
		xp += 10
	case EatOutMonthly:
		xp += 8
	case EatOutWeekly:
		xp += 4
	}
	return xp + frequencyXP(r.OrganicFood)
}

func shoppingXP(r SurveyResponse) int {
	var xp int
	switch r.ClothesFrequency {
	case ClothesRarely:
		xp += 10
	case ClothesSeasonally:
		xp += 7
	case ClothesMonthly:
		xp += 3
	}
	xp += frequencyXP(r.EcoBrands)
	switch r.ReusableBags {
	case Always:
		xp += 10
	case Often:
		xp += 6
	case Sometimes:
		xp += 3
	}
	return xp
}

func energyXP(r SurveyResponse) int {
	var xp int
	switch r.ElectricityBill {
	case BillLow:
		xp += 15
	case BillMedium:
		xp += 8
	}
	xp += frequencyXP(r.SwitchOffAppliances)
	switch r.EnergyEfficient {
	case CoverageAll:
		xp += 10
	case CoverageMost:
		xp += 7
	case CoverageSome:
		xp += 4
	}
	return xp
}

func habitsXP(r SurveyResponse) int {
	return frequencyXP(r.ReusableBottles) + frequencyXP(r.Recycling)
}

func frequencyXP(f Frequency) int {
	switch f {
	case Always:
		return 10
	case Often:
		return 7
	case Sometimes:
		return 4
	default:
		return 0
	}
}
