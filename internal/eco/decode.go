package eco

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ErrNotObject is returned when a document's top level is not a key/value
// mapping.
var ErrNotObject = errors.New("survey document must be an object")

// ErrTrailingData is returned when a JSON document is followed by more input.
var ErrTrailingData = errors.New("unexpected data after survey document")

var fieldSetters = map[string]func(*SurveyResponse, string){
	"commute":             func(r *SurveyResponse, v string) { r.Commute = Commute(v) },
	"rideHailing":         func(r *SurveyResponse, v string) { r.RideHailing = RideHailing(v) },
	"weeklyKm":            func(r *SurveyResponse, v string) { r.WeeklyKm = Kilometers(v) },
	"meatConsumption":     func(r *SurveyResponse, v string) { r.MeatConsumption = MeatConsumption(v) },
	"eatingOut":           func(r *SurveyResponse, v string) { r.EatingOut = EatingOut(v) },
	"organicFood":         func(r *SurveyResponse, v string) { r.OrganicFood = Frequency(v) },
	"clothesFrequency":    func(r *SurveyResponse, v string) { r.ClothesFrequency = ClothesFrequency(v) },
	"ecoBrands":           func(r *SurveyResponse, v string) { r.EcoBrands = Frequency(v) },
	"reusableBags":        func(r *SurveyResponse, v string) { r.ReusableBags = Frequency(v) },
	"electricityBill":     func(r *SurveyResponse, v string) { r.ElectricityBill = ElectricityBill(v) },
	"switchOffAppliances": func(r *SurveyResponse, v string) { r.SwitchOffAppliances = Frequency(v) },
	"energyEfficient":     func(r *SurveyResponse, v string) { r.EnergyEfficient = Coverage(v) },
	"reusableBottles":     func(r *SurveyResponse, v string) { r.ReusableBottles = Frequency(v) },
	"recycling":           func(r *SurveyResponse, v string) { r.Recycling = Frequency(v) },
	"goal":                func(r *SurveyResponse, v string) { r.Goal = v },
}

// FromValues builds a response from loosely typed answers keyed by their
// camelCase names. Scalars are stringified, a []string (as produced by
// form parsing) contributes its first element, and anything else is
// treated as unanswered. Unknown keys are ignored.
func FromValues(values map[string]any) SurveyResponse {
	var r SurveyResponse
	for key, raw := range values {
		set, ok := fieldSetters[key]
		if !ok {
			continue
		}
		if list, ok := raw.([]string); ok {
			if len(list) == 0 {
				continue
			}
			raw = list[0]
		}
		set(&r, scalarString(raw))
	}
	return r
}

// DecodeJSON parses a JSON survey document. A literal null yields the
// empty response.
func DecodeJSON(data []byte) (SurveyResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return SurveyResponse{}, fmt.Errorf("decode survey json: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return SurveyResponse{}, ErrTrailingData
	}
	return fromDocument(doc)
}

// DecodeYAML parses a YAML survey document. An empty document or null
// yields the empty response.
func DecodeYAML(data []byte) (SurveyResponse, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return SurveyResponse{}, fmt.Errorf("decode survey yaml: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc any) (SurveyResponse, error) {
	switch v := doc.(type) {
	case nil:
		return SurveyResponse{}, nil
	case map[string]any:
		return FromValues(v), nil
	case map[any]any:
		// YAML mappings with any non-string key.
		values := make(map[string]any, len(v))
		for key, val := range v {
			values[fmt.Sprint(key)] = val
		}
		return FromValues(values), nil
	default:
		return SurveyResponse{}, ErrNotObject
	}
}
