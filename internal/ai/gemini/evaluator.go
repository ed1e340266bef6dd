package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"talentscout/internal/ai"
	"talentscout/internal/criteria"
	"talentscout/internal/linkedin"
	"talentscout/internal/utils"
)

//go:embed evaluate_prompt.md
var evaluatePromptTemplate string

const evaluatorSystem = "You are a recruiting eligibility classifier. You judge whether a candidate's " +
	"work history satisfies the given criteria and respond with a single JSON object matching the requested shape. " +
	"The reasoning field is mandatory and must cite the tenure dates you based the verdict on."

const (
	defaultMaxLogLength = 200

	// defaultMaxHistoryRunes bounds the prompt size; scraped histories can
	// run long and everything past this adds nothing to the verdict.
	defaultMaxHistoryRunes = 6000

	unparseableReasoning = "unparseable response"
)

// Evaluator judges candidates against criteria through one classifier call
// each. Implements ai.Evaluator.
type Evaluator struct {
	generator       contentGenerator
	logger          *zap.Logger
	maxLogLen       int
	maxHistoryRunes int
	now             func() time.Time
}

func NewEvaluator(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Evaluator{
		generator:       generator,
		logger:          logger,
		maxLogLen:       maxLogLength,
		maxHistoryRunes: defaultMaxHistoryRunes,
		now:             time.Now,
	}
}

// Evaluate classifies one work history against the criteria. A response
// missing the mandatory reasoning violates the classifier contract: it is
// retried once, then conservatively resolved as no match.
func (e *Evaluator) Evaluate(ctx context.Context, c *criteria.Criteria, history *linkedin.WorkHistory) (*ai.Decision, error) {
	if c == nil {
		return nil, fmt.Errorf("criteria are required")
	}
	if history == nil || strings.TrimSpace(history.Text) == "" {
		return nil, fmt.Errorf("work history is required")
	}

	prompt := e.buildPrompt(c, history)

	e.logger.Debug("eligibility evaluation request",
		zap.String("profile", history.ProfileURL),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	decision, raw, err := e.evaluateOnce(ctx, prompt)
	if err != nil {
		if !isContractErr(err) {
			return nil, err
		}

		e.logger.Warn("classifier contract violation, retrying once",
			zap.String("profile", history.ProfileURL),
			zap.Error(err),
		)

		decision, raw, err = e.evaluateOnce(ctx, prompt)
		if err != nil {
			if !isContractErr(err) {
				return nil, err
			}
			// Conservative fallback: never admit a candidate on a
			// response we could not parse.
			decision = &ai.Decision{
				Match:      false,
				Reasoning:  unparseableReasoning,
				Confidence: "low",
			}
		}
	}

	decision.ProfileURL = history.ProfileURL
	decision.Criteria = c
	decision.Raw = raw

	e.logger.Debug("eligibility evaluation response",
		zap.String("profile", history.ProfileURL),
		zap.Bool("match", decision.Match),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return decision, nil
}

func (e *Evaluator) evaluateOnce(ctx context.Context, prompt string) (*ai.Decision, string, error) {
	raw, err := e.generator.GenerateContent(ctx, evaluatorSystem, prompt)
	if err != nil {
		return nil, "", err
	}

	data, err := decodeJSONResponse(raw)
	if err != nil {
		return nil, raw, fmt.Errorf("%w: %s", errMalformedResponse, err)
	}

	reasoning := coerceString(data["reasoning"])
	if reasoning == "" {
		return nil, raw, fmt.Errorf("%w: missing reasoning", errMalformedResponse)
	}

	confidence := strings.ToLower(coerceString(data["confidence"]))
	if confidence == "" {
		confidence = "medium"
	}

	return &ai.Decision{
		Match:         coerceBool(data["match"]),
		Reasoning:     reasoning,
		TargetCompany: coerceString(data["target_company"]),
		LeftDate:      coerceString(data["left_date"]),
		Confidence:    confidence,
	}, raw, nil
}

func (e *Evaluator) buildPrompt(c *criteria.Criteria, history *linkedin.WorkHistory) string {
	text := history.Text
	if runes := []rune(text); len(runes) > e.maxHistoryRunes {
		text = string(runes[:e.maxHistoryRunes])
	}

	prompt := strings.ReplaceAll(evaluatePromptTemplate, "{{QUERY}}", c.OriginalQuery)
	prompt = strings.ReplaceAll(prompt, "{{WORK_HISTORY}}", text)
	prompt = strings.ReplaceAll(prompt, "{{TODAY}}", e.now().Format("January 2, 2006"))
	prompt = strings.ReplaceAll(prompt, "{{RUBRIC}}", renderRubric(c))

	return prompt
}

// renderRubric spells the criteria out as numbered rules. Role matching is
// deliberately left to the classifier's judgment: equivalent titles count
// and the literal keyword is not required.
func renderRubric(c *criteria.Criteria) string {
	target := c.Company
	if c.TeamOrProduct != "" {
		target = fmt.Sprintf("%s (specifically the %s team or product)", c.Company, c.TeamOrProduct)
	}

	var rules []string

	rules = append(rules, fmt.Sprintf(
		"Did this person work at %s? If not, they do NOT match.", target))

	if len(c.RoleKeywords) > 0 {
		rules = append(rules, fmt.Sprintf(
			"Their role there should match: %s. Treat equivalent titles as matching; do not require the literal keyword.",
			strings.Join(c.RoleKeywords, ", ")))
	}

	if !c.StillEmployedOK {
		rules = append(rules,
			`If their position at the target company shows "Present", they still work there and do NOT match.`)
	} else {
		rules = append(rules,
			"People currently employed at the target company DO count.")
	}

	if c.LeftAfter != nil {
		rules = append(rules, fmt.Sprintf(
			"They must have left the target company on or after %s.", c.LeftAfter.Format(criteria.DateLayout)))
	}

	if c.LeftBefore != nil {
		rules = append(rules, fmt.Sprintf(
			"They must have left the target company on or before %s.", c.LeftBefore.Format(criteria.DateLayout)))
	}

	if c.MinMonthsAgo > 0 {
		rules = append(rules, fmt.Sprintf(
			"They must have left MORE than %d months ago (not too recent).", c.MinMonthsAgo))
	}

	if c.MaxMonthsAgo > 0 {
		rules = append(rules, fmt.Sprintf(
			"They must have worked there within the last %d months (not too long ago).", c.MaxMonthsAgo))
	}

	var builder strings.Builder
	for i, rule := range rules {
		if i > 0 {
			builder.WriteString("\n")
		}
		fmt.Fprintf(&builder, "%d. %s", i+1, rule)
	}

	return builder.String()
}
