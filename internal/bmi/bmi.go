// Package bmi converts imperial height and metric weight into a body mass
// index and the payload the consultation backend expects for BMI questions.
package bmi

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	MinFeet     = 3
	MaxFeet     = 9
	MinInches   = 0
	MaxInches   = 11
	MinWeightKg = 35
	MaxWeightKg = 635

	metersPerInch = 0.0254
	cmPerInch     = 2.54
)

const (
	FieldFeet   = "feet"
	FieldInches = "inches"
	FieldWeight = "weight"
)

type Input struct {
	Feet     int     `json:"feet"`
	Inches   int     `json:"inches"`
	WeightKg float64 `json:"weight"`
}

type Result struct {
	BMI      float64 `json:"bmi"`
	HeightM  float64 `json:"height_m"`
	HeightCm int     `json:"height_cm"`
	WeightKg float64 `json:"weight"`
}

// Payload is the answer body sent for the BMI question.
type Payload struct {
	HeightCm string  `json:"height_cm"`
	Weight   string  `json:"weight"`
	BMIValue float64 `json:"bmi_value"`
}

// ValidationError carries one message per rejected field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid measurement: " + strings.Join(parts, "; ")
}

func (e *ValidationError) FieldMessages() map[string]string {
	return e.Fields
}

// Validate checks every field independently and reports all failures at once.
func Validate(in Input) error {
	fields := map[string]string{}
	if in.Feet < MinFeet || in.Feet > MaxFeet {
		fields[FieldFeet] = fmt.Sprintf("Feet must be between %d and %d", MinFeet, MaxFeet)
	}
	if in.Inches < MinInches || in.Inches > MaxInches {
		fields[FieldInches] = fmt.Sprintf("Inches must be between %d and %d", MinInches, MaxInches)
	}
	if math.IsNaN(in.WeightKg) || in.WeightKg < MinWeightKg || in.WeightKg > MaxWeightKg {
		fields[FieldWeight] = fmt.Sprintf("Weight must be between %d and %d kg", MinWeightKg, MaxWeightKg)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Calculate returns nothing but the error when any field is out of range.
func Calculate(in Input) (Result, error) {
	if err := Validate(in); err != nil {
		return Result{}, err
	}

	totalInches := float64(in.Feet*12 + in.Inches)
	heightM := totalInches * metersPerInch

	return Result{
		BMI:      round1(in.WeightKg / (heightM * heightM)),
		HeightM:  heightM,
		HeightCm: int(math.Round(totalInches * cmPerInch)),
		WeightKg: in.WeightKg,
	}, nil
}

func (r Result) Payload() Payload {
	return Payload{
		HeightCm: strconv.Itoa(r.HeightCm),
		Weight:   strconv.FormatFloat(r.WeightKg, 'f', -1, 64),
		BMIValue: r.BMI,
	}
}

type Category string

const (
	Underweight Category = "underweight"
	Normal      Category = "normal"
	Overweight  Category = "overweight"
	Obese       Category = "obese"
)

// CategoryOf uses the WHO adult cut-offs.
func CategoryOf(bmi float64) Category {
	switch {
	case bmi < 18.5:
		return Underweight
	case bmi < 25:
		return Normal
	case bmi < 30:
		return Overweight
	default:
		return Obese
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
