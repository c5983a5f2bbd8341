package llmextract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"governmentreporter/internal/observability"
)

// Extractor generates plain-language metadata fields for both document
// types via chat completion in JSON-object mode.
type Extractor struct {
	client openai.Client
	model  string
}

// New constructs an Extractor using the given model (e.g. "gpt-4o-mini"),
// matching the reference corpus's "nano"-tier reasoning model choice for
// cheap, high-volume metadata extraction.
func New(apiKey, model string) *Extractor {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Extractor{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

const scotusSystemPrompt = `You are a legal analyst extracting metadata from Supreme Court opinions for a retrieval system.
Your task is to extract structured metadata that helps lay users (non-lawyers) understand complex legal documents.

CRITICAL: Use simple, everyday language. Avoid legal jargon at all costs.

Extract the following fields in JSON format:
1. plain_language_summary: one paragraph: "In a case about [subject]... the Court decided that [holding]. The Court reasoned that [reason]."
2. constitution_cited: array of U.S. Constitution citations in Bluebook format
3. federal_statutes_cited: array of U.S.C. citations in Bluebook format
4. federal_regulations_cited: array of C.F.R. citations in Bluebook format
5. cases_cited: array of case citations in Bluebook format
6. topics_or_policy_areas: 5-8 tags mixing legal concepts and everyday search terms
7. holding_plain: the Court's decision in one plain-language sentence
8. outcome_simple: who won and what happens next, in simple terms
9. issue_plain: the central question, phrased as a simple question
10. reasoning: why the Court decided this way, in one everyday-language paragraph

Forbidden jargon (use the plain alternative instead): "petitioner" -> "the person who sued", "respondent" -> "the other party",
"affirmed" -> "upheld the lower court's decision", "reversed" -> "overturned the lower court's decision",
"remanded" -> "sent back to the lower court", "vacated" -> "threw out the lower court's decision",
"standing" -> "the right to sue", "certiorari" -> "agreed to hear the case", "per curiam" -> "opinion by the whole court".

Write for someone with no legal training.`

const eoSystemPrompt = `You are a policy analyst extracting metadata from Presidential Executive Orders for a retrieval system.
Your task is to extract structured metadata that helps lay users understand government actions and policies.

CRITICAL: Write for regular people, not policy experts. Focus on real-world impacts.

Extract the following fields in JSON format:
1. plain_language_summary: 3-4 sentences starting with an action verb (Creates, Bans, Requires, Cancels, Orders, Expands...),
   explaining the practical impact and who is affected.
2. agencies_impacted: array of federal agencies affected by the order, using full recognizable names
3. constitution_cited: array of U.S. Constitution citations in Bluebook format
4. federal_statutes_cited: array of U.S.C. citations in Bluebook format
5. federal_regulations_cited: array of C.F.R. citations in Bluebook format
6. cases_cited: array of case citations in Bluebook format (rare in EOs but possible)
7. topics_or_policy_areas: 5-8 tags using terms regular people would search for

Avoid bureaucratic language and acronyms without explanation. Focus on who does what and who is affected.`

// ExtractScotusFields analyzes a Supreme Court opinion. When syllabus is
// non-empty, the prompt instructs the model to prefer it — the Court
// Reporter's own summary — for holding_plain, outcome_simple, and
// issue_plain, falling back to the full opinion text for every other
// field. On any failure after retries it returns a minimal valid fallback
// and ok=false, so one bad extraction never aborts an ingestion run but
// the caller can still flag the document for reprocessing.
func (e *Extractor) ExtractScotusFields(ctx context.Context, text, syllabus string) (fields ScotusFields, ok bool) {
	content := text
	instruction := ""
	if syllabus != "" {
		content = fmt.Sprintf("SYLLABUS (USE THIS FOR HOLDING, OUTCOME, AND ISSUE):\n%s\n\nFULL OPINION:\n%s", syllabus, text)
		instruction = "\nIMPORTANT: Extract holding_plain, outcome_simple, and issue_plain ONLY from the SYLLABUS section above. Use the full opinion for all other fields.\n"
	}

	userPrompt := "Extract metadata from this Supreme Court opinion:\n\n" + content

	err := e.callJSON(ctx, scotusSystemPrompt+instruction, userPrompt, 2000, &fields)
	if err != nil {
		observability.LoggerWithTrace(ctx).Error().Err(err).Msg("scotus_llm_extraction_failed")
		return fallbackScotusFields(), false
	}

	if len(fields.TopicsOrPolicyAreas) > 8 {
		fields.TopicsOrPolicyAreas = fields.TopicsOrPolicyAreas[:8]
	}
	return fields, true
}

// ExtractEOFields analyzes an Executive Order and returns action-oriented
// metadata, topping up topics_or_policy_areas with generic fallbacks when
// the model returns fewer than 5. On failure it returns a minimal valid
// fallback and ok=false.
func (e *Extractor) ExtractEOFields(ctx context.Context, text string) (fields EOFields, ok bool) {
	userPrompt := "Extract metadata from this Executive Order:\n\n" + text

	err := e.callJSON(ctx, eoSystemPrompt, userPrompt, 1500, &fields)
	if err != nil {
		observability.LoggerWithTrace(ctx).Error().Err(err).Msg("eo_llm_extraction_failed")
		return fallbackEOFields(), false
	}

	fields.TopicsOrPolicyAreas = padEOTopics(fields.TopicsOrPolicyAreas)
	return fields, true
}

// callJSON issues a JSON-object-mode chat completion with up to three
// attempts (waiting 1s, then 2s, between them) and unmarshals the content
// into out. Every error is retried.
func (e *Extractor) callJSON(ctx context.Context, systemPrompt, userPrompt string, maxTokens int64, out any) error {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
		MaxCompletionTokens: openai.Int(maxTokens),
	}

	var content string
	delay := time.Second
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		comp, err := e.client.Chat.Completions.New(ctx, params)
		if err == nil {
			if len(comp.Choices) == 0 || comp.Choices[0].Message.Content == "" {
				lastErr = fmt.Errorf("empty response from chat completion")
			} else {
				content = comp.Choices[0].Message.Content
				lastErr = nil
				break
			}
		} else {
			lastErr = err
		}

		if attempt == 3 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	if lastErr != nil {
		return lastErr
	}

	return json.Unmarshal([]byte(content), out)
}
