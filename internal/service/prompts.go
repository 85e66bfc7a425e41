package service

import "fmt"

// analysisPrompt is the single system message sent to the completion model.
// The first %s is the sanitized policy document, the second the sanitized
// page content.
const analysisPrompt = `You are an expert at structured data extraction. You will analyze two pieces of content:
1. Compliance policies from the configured marketing compliance guidelines
2. Content from the provided URL

Compliance Policies Content:
%s

URL Content to analyze:
%s

Respond in the following JSON format:
{
    "structured_content": [<array of logical statements extracted from URL content>],
    "compliance_analysis": {
        "compliant": [<array of followed policies>],
        "non_compliant": [<array of policies not followed>]
    }
}`

// BuildPrompt embeds both sanitized texts verbatim in the analysis prompt.
func BuildPrompt(policy, page string) string {
	return fmt.Sprintf(analysisPrompt, policy, page)
}
