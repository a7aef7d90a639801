package eco

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTips(t *testing.T) {
	cases := []struct {
		name string
		in   SurveyResponse
		want []string
	}{
		{
			name: "empty falls back",
			in:   SurveyResponse{},
			want: []string{FallbackTip},
		},
		{
			name: "best falls back",
			in:   bestResponse(),
			want: []string{FallbackTip},
		},
		{
			name: "ride hailing daily alone triggers transport tip",
			in:   SurveyResponse{Commute: CommuteWalk, RideHailing: RideDaily},
			want: []string{"Try public transport twice a week → save ₹500 + 2kg CO₂"},
		},
		{
			name: "worst gets every tip in order",
			in:   worstResponse(),
			want: []string{
				"Try public transport twice a week → save ₹500 + 2kg CO₂",
				"Consider carpooling or cycling for short trips → reduce emissions",
				"Have one meat-free day per week → reduce carbon footprint by 15%",
				"Cook at home more often → save money and reduce packaging waste",
				"Buy second-hand items this month → save money and resources",
				"Try one eco-friendly brand → support sustainable businesses",
				"Switch to LED bulbs → save ₹200/month on electricity",
				"Turn off appliances when not in use → reduce energy waste",
				"Get a reusable water bottle → save ₹50/week on bottled water",
				"Start recycling paper and plastic → reduce landfill waste",
			},
		},
		{
			name: "exactly 100 km is not flagged",
			in:   SurveyResponse{WeeklyKm: "100"},
			want: []string{FallbackTip},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tips(tc.in, Score(tc.in))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("tips (-want +got):\n%s", diff)
			}
		})
	}
}
