// Package treatment wraps the generative-AI treatment planner and symptom checker.
// Results are advisory text for clinicians and patients; nothing here touches
// appointments.
package treatment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDisabled     = errors.New("ai assistant is not configured")
	ErrUpstream     = errors.New("ai assistant request failed")
	ErrInvalidInput = errors.New("invalid ai assistant input")
)

// Generator is the external planner. Implementations make one call per request.
type Generator interface {
	GeneratePlan(ctx context.Context, in PatientContext) (Plan, error)
	CheckSymptoms(ctx context.Context, in SymptomInput) (Plan, error)
}

// PatientContext is what a clinician shares when asking for a draft plan.
type PatientContext struct {
	Age            int      `json:"age"`
	ChiefComplaint string   `json:"chiefComplaint"`
	Findings       string   `json:"findings"`
	MedicalHistory string   `json:"medicalHistory"`
	Allergies      []string `json:"allergies"`
}

func (p PatientContext) Validate() error {
	if strings.TrimSpace(p.ChiefComplaint) == "" {
		return fmt.Errorf("%w: chiefComplaint is required", ErrInvalidInput)
	}
	if p.Age < 0 || p.Age > 130 {
		return fmt.Errorf("%w: age out of range", ErrInvalidInput)
	}
	return nil
}

// SymptomInput is a patient's self-reported complaint.
type SymptomInput struct {
	Symptoms     []string `json:"symptoms"`
	DurationDays int      `json:"durationDays"`
	PainLevel    int      `json:"painLevel"`
	Notes        string   `json:"notes"`
}

func (s SymptomInput) Validate() error {
	n := 0
	for _, sym := range s.Symptoms {
		if strings.TrimSpace(sym) != "" {
			n++
		}
	}
	if n == 0 {
		return fmt.Errorf("%w: at least one symptom is required", ErrInvalidInput)
	}
	if s.PainLevel < 0 || s.PainLevel > 10 {
		return fmt.Errorf("%w: painLevel must be between 0 and 10", ErrInvalidInput)
	}
	if s.DurationDays < 0 {
		return fmt.Errorf("%w: durationDays must not be negative", ErrInvalidInput)
	}
	return nil
}

type PlanStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Sessions    int    `json:"sessions,omitempty"`
}

// Plan is the generator's answer. Urgency is one of routine, soon, urgent.
type Plan struct {
	Summary    string     `json:"summary"`
	Steps      []PlanStep `json:"steps"`
	Urgency    string     `json:"urgency,omitempty"`
	Disclaimer string     `json:"disclaimer"`
}
