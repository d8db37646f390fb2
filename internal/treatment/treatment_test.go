package treatment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/dental-clinic-scheduling/internal/auth"
)

type stubGenerator struct {
	plan  Plan
	err   error
	calls int
}

func (s *stubGenerator) GeneratePlan(ctx context.Context, in PatientContext) (Plan, error) {
	s.calls++
	return s.plan, s.err
}

func (s *stubGenerator) CheckSymptoms(ctx context.Context, in SymptomInput) (Plan, error) {
	s.calls++
	return s.plan, s.err
}

var (
	staff   = auth.Actor{UserID: uuid.New(), Role: auth.RoleClinicStaff, ClinicID: uuid.New()}
	patient = auth.Actor{UserID: uuid.New(), Role: auth.RolePatient}
)

func TestGeneratePlanFillsDisclaimer(t *testing.T) {
	gen := &stubGenerator{plan: Plan{Summary: "Root canal on 36", Urgency: "soon"}}
	svc := NewService(gen, nil)

	plan, err := svc.GeneratePlan(context.Background(), staff, PatientContext{Age: 41, ChiefComplaint: "throbbing lower left molar"})
	require.NoError(t, err)
	assert.Equal(t, "Root canal on 36", plan.Summary)
	assert.Equal(t, defaultDisclaimer, plan.Disclaimer)
	assert.NotNil(t, plan.Steps)
}

func TestGeneratePlanRolesAndValidation(t *testing.T) {
	gen := &stubGenerator{plan: Plan{Summary: "x"}}
	svc := NewService(gen, nil)
	ctx := context.Background()

	_, err := svc.GeneratePlan(ctx, patient, PatientContext{ChiefComplaint: "pain"})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.GeneratePlan(ctx, staff, PatientContext{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CheckSymptoms(ctx, staff, SymptomInput{Symptoms: []string{"bleeding gums"}})
	assert.ErrorIs(t, err, auth.ErrForbidden)

	_, err = svc.CheckSymptoms(ctx, patient, SymptomInput{Symptoms: []string{" "}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CheckSymptoms(ctx, patient, SymptomInput{Symptoms: []string{"ache"}, PainLevel: 11})
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Zero(t, gen.calls, "invalid requests never reach the generator")
}

func TestUpstreamFailureIsWrapped(t *testing.T) {
	svc := NewService(&stubGenerator{err: errors.New("quota exceeded")}, nil)

	_, err := svc.CheckSymptoms(context.Background(), patient, SymptomInput{Symptoms: []string{"sensitivity to cold"}, PainLevel: 3})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestDisabledWithoutGenerator(t *testing.T) {
	svc := NewService(nil, nil)
	assert.False(t, svc.Enabled())

	_, err := svc.GeneratePlan(context.Background(), staff, PatientContext{ChiefComplaint: "chipped tooth"})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestParsePlan(t *testing.T) {
	p := parsePlan("```json\n{\"summary\":\"Scale and polish\",\"urgency\":\"routine\",\"steps\":[{\"title\":\"Hygiene visit\",\"description\":\"Full mouth scaling\",\"sessions\":1}]}\n```")
	assert.Equal(t, "Scale and polish", p.Summary)
	assert.Equal(t, "routine", p.Urgency)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, 1, p.Steps[0].Sessions)

	p = parsePlan("See a dentist within a week.")
	assert.Equal(t, "See a dentist within a week.", p.Summary)
	assert.Empty(t, p.Steps)
}

func TestPromptsCarryInput(t *testing.T) {
	prompt := planPrompt(PatientContext{Age: 30, ChiefComplaint: "cracked crown", Allergies: []string{"penicillin", "latex"}})
	assert.Contains(t, prompt, "Age: 30")
	assert.Contains(t, prompt, "cracked crown")
	assert.Contains(t, prompt, "penicillin, latex")
	assert.NotContains(t, prompt, "Medical history")

	prompt = symptomPrompt(SymptomInput{Symptoms: []string{"swelling", "fever"}, DurationDays: 2, PainLevel: 7})
	assert.Contains(t, prompt, "swelling, fever")
	assert.Contains(t, prompt, "Duration: 2 days")
	assert.Contains(t, prompt, "Pain level (0-10): 7")
}
