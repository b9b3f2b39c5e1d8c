package llm

import "fmt"

// BuildStrategyPrompt builds the prompt asking the model to expand a research
// question into distinct search strategies. The model must answer with a bare
// JSON array so the response can be parsed directly.
func BuildStrategyPrompt(question string, count int) string {
	return fmt.Sprintf(`You are a research librarian helping plan a systematic literature search.

Research question: %q

Generate exactly %d distinct search strategies for academic databases. Each strategy should approach the question from a different angle (core terminology, adjacent fields, methodologies, applications).

Respond ONLY with a JSON array, no markdown and no commentary. Each element must have these keys:
- "query": the search string to send to academic search engines (3-8 terms, no boolean operators)
- "rationale": one sentence explaining what this strategy targets
- "topic": a short label (2-4 words) naming the angle

Example response:
[{"query": "transformer attention mechanisms", "rationale": "Targets the core architecture literature.", "topic": "Core Architecture"}]`, question, count)
}

// BuildSummaryPrompt builds the prompt asking the model to summarize an
// article abstract for a reading sheet.
func BuildSummaryPrompt(title, abstract string) string {
	return fmt.Sprintf(`Summarize the following academic article for a literature review reading sheet.

Title: %s

Abstract:
%s

Write 2-3 sentences covering the problem addressed, the approach, and the main finding. Respond with the summary text only.`, title, abstract)
}
