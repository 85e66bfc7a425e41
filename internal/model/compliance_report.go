package model

import "encoding/json"

// AnalysisResult is the structured answer produced by the completion model.
// Statements are passed through as the model wrote them, strings or objects.
type AnalysisResult struct {
	StructuredContent  []json.RawMessage  `json:"structured_content"`
	ComplianceAnalysis ComplianceAnalysis `json:"compliance_analysis"`
}

// ComplianceAnalysis splits policy labels into followed and violated sets.
type ComplianceAnalysis struct {
	Compliant    []string `json:"compliant"`
	NonCompliant []string `json:"non_compliant"`
}

// Report is the success body of the webpage endpoint.
type Report struct {
	URL      string         `json:"url"`
	Analysis AnalysisResult `json:"analysis"`
}

// ErrorResponse is the failure body of every endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
