package treatment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const planInstruction = `You assist dentists. Answer with a single JSON object of the form
{"summary": string, "urgency": "routine"|"soon"|"urgent", "steps": [{"title": string, "description": string, "sessions": number}]}.
Do not add markdown fences or any text outside the JSON object.`

// GeminiGenerator implements Generator on Google's Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	modelID string
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelID string) (*GeminiGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("treatment: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("treatment: failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, modelID: modelID}, nil
}

func (g *GeminiGenerator) GeneratePlan(ctx context.Context, in PatientContext) (Plan, error) {
	return g.generate(ctx, planPrompt(in))
}

func (g *GeminiGenerator) CheckSymptoms(ctx context.Context, in SymptomInput) (Plan, error) {
	return g.generate(ctx, symptomPrompt(in))
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string) (Plan, error) {
	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = genai.NewUserContent(genai.Text(planInstruction))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Candidates) == 0 {
		return Plan{}, fmt.Errorf("%w: gemini returned no candidates", ErrUpstream)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return Plan{}, fmt.Errorf("%w: gemini returned empty content", ErrUpstream)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return parsePlan(text.String()), nil
}

// Close releases resources held by the Gemini client.
func (g *GeminiGenerator) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func planPrompt(in PatientContext) string {
	var b strings.Builder
	b.WriteString("Draft a dental treatment plan for this patient.\n")
	if in.Age > 0 {
		fmt.Fprintf(&b, "Age: %d\n", in.Age)
	}
	fmt.Fprintf(&b, "Chief complaint: %s\n", strings.TrimSpace(in.ChiefComplaint))
	if s := strings.TrimSpace(in.Findings); s != "" {
		fmt.Fprintf(&b, "Clinical findings: %s\n", s)
	}
	if s := strings.TrimSpace(in.MedicalHistory); s != "" {
		fmt.Fprintf(&b, "Medical history: %s\n", s)
	}
	if len(in.Allergies) > 0 {
		fmt.Fprintf(&b, "Allergies: %s\n", strings.Join(in.Allergies, ", "))
	}
	return b.String()
}

func symptomPrompt(in SymptomInput) string {
	var b strings.Builder
	b.WriteString("A patient reports the following dental symptoms. Suggest likely causes as the summary and next steps.\n")
	fmt.Fprintf(&b, "Symptoms: %s\n", strings.Join(in.Symptoms, ", "))
	if in.DurationDays > 0 {
		fmt.Fprintf(&b, "Duration: %d days\n", in.DurationDays)
	}
	fmt.Fprintf(&b, "Pain level (0-10): %d\n", in.PainLevel)
	if s := strings.TrimSpace(in.Notes); s != "" {
		fmt.Fprintf(&b, "Notes: %s\n", s)
	}
	return b.String()
}

// parsePlan decodes the model's JSON answer. Anything that does not decode is
// kept verbatim as the summary.
func parsePlan(text string) Plan {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var p Plan
	if err := json.Unmarshal([]byte(text), &p); err != nil || p.Summary == "" {
		return Plan{Summary: text}
	}
	return p
}
