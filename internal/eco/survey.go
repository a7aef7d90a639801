// Package eco computes the eco-lifestyle profile (score, persona, XP and
// badges) and the personalised tips derived from a single survey response.
//
// Everything in this package is a pure function of its input: no I/O, no
// shared state, safe to call from any number of goroutines.
package eco

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

type (
	Commute          string
	RideHailing      string
	MeatConsumption  string
	EatingOut        string
	Frequency        string
	ClothesFrequency string
	ElectricityBill  string
	Coverage         string

	// Kilometers is the raw "km driven per week" answer as submitted.
	// It is kept unparsed so that absent and unparsable answers stay
	// distinguishable; see Value and Present.
	Kilometers string
)

const (
	CommuteWalk    Commute = "walk"
	CommuteCycle   Commute = "cycle"
	CommutePublic  Commute = "public"
	CommuteBike    Commute = "bike"
	CommuteCarpool Commute = "carpool"
	CommuteCar     Commute = "car"
)

const (
	RideNever  RideHailing = "never"
	RideRarely RideHailing = "rarely"
	RideFew    RideHailing = "few"
	RideDaily  RideHailing = "daily"
)

const (
	MeatNever  MeatConsumption = "never"
	MeatRarely MeatConsumption = "rarely"
	MeatWeekly MeatConsumption = "weekly"
	MeatDaily  MeatConsumption = "daily"
)

const (
	EatOutNever   EatingOut = "never"
	EatOutMonthly EatingOut = "monthly"
	EatOutWeekly  EatingOut = "weekly"
	EatOutDaily   EatingOut = "daily"
)

const (
	Always    Frequency = "always"
	Often     Frequency = "often"
	Sometimes Frequency = "sometimes"
	Never     Frequency = "never"
)

const (
	ClothesRarely     ClothesFrequency = "rarely"
	ClothesSeasonally ClothesFrequency = "seasonally"
	ClothesMonthly    ClothesFrequency = "monthly"
	ClothesWeekly     ClothesFrequency = "weekly"
)

const (
	BillLow    ElectricityBill = "low"
	BillMedium ElectricityBill = "medium"
	BillHigh   ElectricityBill = "high"
)

const (
	CoverageAll  Coverage = "all"
	CoverageMost Coverage = "most"
	CoverageSome Coverage = "some"
	CoverageNone Coverage = "none"
)

// SurveyResponse is one submission of the eco-lifestyle survey. Any field
// may be empty or hold a value outside its enum; such fields contribute
// nothing to scores, XP or badges.
type SurveyResponse struct {
	Commute             Commute          `json:"commute,omitempty" yaml:"commute,omitempty"`
	RideHailing         RideHailing      `json:"rideHailing,omitempty" yaml:"rideHailing,omitempty"`
	WeeklyKm            Kilometers       `json:"weeklyKm,omitempty" yaml:"weeklyKm,omitempty"`
	MeatConsumption     MeatConsumption  `json:"meatConsumption,omitempty" yaml:"meatConsumption,omitempty"`
	EatingOut           EatingOut        `json:"eatingOut,omitempty" yaml:"eatingOut,omitempty"`
	OrganicFood         Frequency        `json:"organicFood,omitempty" yaml:"organicFood,omitempty"`
	ClothesFrequency    ClothesFrequency `json:"clothesFrequency,omitempty" yaml:"clothesFrequency,omitempty"`
	EcoBrands           Frequency        `json:"ecoBrands,omitempty" yaml:"ecoBrands,omitempty"`
	ReusableBags        Frequency        `json:"reusableBags,omitempty" yaml:"reusableBags,omitempty"`
	ElectricityBill     ElectricityBill  `json:"electricityBill,omitempty" yaml:"electricityBill,omitempty"`
	SwitchOffAppliances Frequency        `json:"switchOffAppliances,omitempty" yaml:"switchOffAppliances,omitempty"`
	EnergyEfficient     Coverage         `json:"energyEfficient,omitempty" yaml:"energyEfficient,omitempty"`
	ReusableBottles     Frequency        `json:"reusableBottles,omitempty" yaml:"reusableBottles,omitempty"`
	Recycling           Frequency        `json:"recycling,omitempty" yaml:"recycling,omitempty"`
	Goal                string           `json:"goal,omitempty" yaml:"goal,omitempty"`
}

// Present reports whether a weekly-km answer was given at all.
func (k Kilometers) Present() bool {
	return strings.TrimSpace(string(k)) != ""
}

// Value coerces the answer to an integer the way a lenient leading-integer
// parse does: leading whitespace, an optional sign, then as many digits as
// follow ("0x" switches to hex). "40 km" is 40, "12.9" is 12, and input
// with no leading digits is 0. Numeric answers were rendered by
// formatNumber first, so 1e21 arrives as "1e+21" and reads as 1.
func (k Kilometers) Value() int {
	s := strings.TrimLeftFunc(string(k), unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	base := 10
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	const limit = 1 << 31
	n := 0
	for _, r := range s {
		d := digitValue(r, base)
		if d < 0 {
			break
		}
		if n < limit {
			n = n*base + d
		}
	}
	if n > limit {
		n = limit
	}
	if neg {
		return -n
	}
	return n
}

func digitValue(r rune, base int) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case base == 16 && r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case base == 16 && r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	}
	return -1
}

// UnmarshalJSON accepts both numbers and strings; null and non-scalar
// values leave the answer absent.
func (k *Kilometers) UnmarshalJSON(data []byte) error {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*k = Kilometers(scalarString(v))
	return nil
}

// scalarString renders a decoded JSON/YAML scalar as the string a form
// submission would have carried. Non-scalars yield "".
func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return formatNumber(f, 64)
		}
		return val.String()
	case float64:
		return formatNumber(val, 64)
	case float32:
		return formatNumber(float64(val), 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// formatNumber renders f the way a browser stringifies a number: plain
// decimals, switching to exponent form at 1e21 and below 1e-6, so that
// 1e21 km reads as 1.
func formatNumber(f float64, bitSize int) string {
	if abs := math.Abs(f); abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		s := strconv.FormatFloat(f, 'g', -1, bitSize)
		return strings.NewReplacer("e+0", "e+", "e-0", "e-").Replace(s)
	}
	return strconv.FormatFloat(f, 'f', -1, bitSize)
}
