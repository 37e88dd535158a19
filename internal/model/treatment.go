package model

// TreatmentRequest asks for a treatment plan for detected crop diseases.
type TreatmentRequest struct {
	CropName string   `json:"crop_name,omitempty"`
	Diseases []string `json:"diseases"`
	Prompt   string   `json:"prompt,omitempty"`
}

// TreatmentPlan is the structured advice returned to the farmer.
type TreatmentPlan struct {
	ImmediateSteps      []string `json:"immediate_steps"`
	LongTermPrevention  []string `json:"long_term_prevention"`
	OrganicAlternatives []string `json:"organic_alternatives"`
	ChemicalSolutions   []string `json:"chemical_solutions"`
	Fallback            bool     `json:"fallback,omitempty"`
}
