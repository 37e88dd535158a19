package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"agrigenie/internal/gemini"
	"agrigenie/internal/model"

	"github.com/rs/zerolog"
)

var errDiseasesRequired = model.NewDomainError(model.ErrCodeInvalidRequest, "At least one disease or a prompt is required")

// FallbackPlan is returned whenever a generated plan is unavailable.
func FallbackPlan() *model.TreatmentPlan {
	return &model.TreatmentPlan{
		ImmediateSteps: []string{
			"Isolate affected plants to prevent spread",
			"Remove and destroy severely infected parts",
			"Monitor plant health daily",
		},
		LongTermPrevention: []string{
			"Maintain proper plant spacing for air circulation",
			"Follow recommended watering practices",
			"Regular inspection of plants",
		},
		OrganicAlternatives: []string{
			"Use neem oil solution",
			"Apply baking soda spray",
			"Try garlic-based natural fungicide",
		},
		ChemicalSolutions: []string{
			"Consult with a local agricultural expert for specific chemical treatments",
			"Follow safety guidelines when using chemical treatments",
		},
		Fallback: true,
	}
}

type treatmentService struct {
	generator gemini.Generator
	logger    zerolog.Logger
}

// NewTreatmentService creates a treatment service backed by a text generator.
func NewTreatmentService(generator gemini.Generator, logger zerolog.Logger) TreatmentService {
	return &treatmentService{
		generator: generator,
		logger:    logger.With().Str("service", "treatment").Logger(),
	}
}

func (s *treatmentService) Generate(ctx context.Context, req model.TreatmentRequest) (*model.TreatmentPlan, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		if len(req.Diseases) == 0 {
			return nil, errDiseasesRequired
		}
		prompt = buildTreatmentPrompt(req)
	}

	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		ev := s.logger.Warn()
		if errors.Is(err, gemini.ErrNotConfigured) {
			ev = s.logger.Debug()
		}
		ev.Err(err).Msg("treatment generation failed, returning fallback plan")
		return FallbackPlan(), nil
	}

	plan, err := parseTreatmentPlan(text)
	if err != nil {
		s.logger.Warn().Err(err).Msg("unusable treatment plan, returning fallback plan")
		return FallbackPlan(), nil
	}
	return plan, nil
}

func buildTreatmentPrompt(req model.TreatmentRequest) string {
	var sb strings.Builder
	sb.WriteString("Act as a plant pathologist. ")
	if req.CropName != "" {
		fmt.Fprintf(&sb, "The crop is %s. ", req.CropName)
	}
	fmt.Fprintf(&sb, "For these detected diseases: %s.\n", strings.Join(req.Diseases, ", "))
	sb.WriteString("Provide:\n")
	sb.WriteString("1. Immediate treatment steps\n")
	sb.WriteString("2. Long-term prevention strategies\n")
	sb.WriteString("3. Organic alternatives\n")
	sb.WriteString("4. Chemical solutions (if necessary)\n")
	sb.WriteString("Respond only with a JSON object with the keys immediate_steps, long_term_prevention, ")
	sb.WriteString("organic_alternatives and chemical_solutions, each an array of strings.")
	return sb.String()
}

// parseTreatmentPlan decodes model output, tolerating markdown code fences.
// All four sections must be present.
func parseTreatmentPlan(text string) (*model.TreatmentPlan, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var raw struct {
		ImmediateSteps      *[]string `json:"immediate_steps"`
		LongTermPrevention  *[]string `json:"long_term_prevention"`
		OrganicAlternatives *[]string `json:"organic_alternatives"`
		ChemicalSolutions   *[]string `json:"chemical_solutions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode treatment plan: %w", err)
	}
	if raw.ImmediateSteps == nil || raw.LongTermPrevention == nil ||
		raw.OrganicAlternatives == nil || raw.ChemicalSolutions == nil {
		return nil, errors.New("treatment plan is missing required sections")
	}

	return &model.TreatmentPlan{
		ImmediateSteps:      *raw.ImmediateSteps,
		LongTermPrevention:  *raw.LongTermPrevention,
		OrganicAlternatives: *raw.OrganicAlternatives,
		ChemicalSolutions:   *raw.ChemicalSolutions,
	}, nil
}
