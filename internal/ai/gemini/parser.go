package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"talentscout/internal/criteria"
	"talentscout/internal/utils"
)

//go:embed parse_prompt.md
var parsePromptTemplate string

const parserSystem = "You are a recruiting query parser. You extract structured search criteria " +
	"from free-text recruiting queries and respond with a single JSON object matching the requested shape."

// Parser turns a free-text recruiting query into validated Criteria through
// one classifier call. Implements ai.QueryParser.
type Parser struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
	now       func() time.Time
}

func NewParser(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Parser {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Parser{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
		now:       time.Now,
	}
}

// Parse extracts Criteria from the query. Absent fields in the model's
// answer become unset constraints. A malformed answer is retried once before
// failing; an answer with no company or time signal fails with
// criteria.ErrAmbiguousQuery.
func (p *Parser) Parse(ctx context.Context, query string) (*criteria.Criteria, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	prompt := strings.ReplaceAll(parsePromptTemplate, "{{QUERY}}", query)
	prompt = strings.ReplaceAll(prompt, "{{TODAY}}", p.now().Format("January 2, 2006"))

	p.logger.Debug("criteria extraction request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("query", query),
	)

	c, err := p.parseOnce(ctx, prompt, query)
	if err != nil && isContractErr(err) {
		p.logger.Warn("criteria response malformed, retrying once", zap.Error(err))
		c, err = p.parseOnce(ctx, prompt, query)
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (p *Parser) parseOnce(ctx context.Context, prompt, query string) (*criteria.Criteria, error) {
	raw, err := p.generator.GenerateContent(ctx, parserSystem, prompt)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("criteria extraction response",
		zap.String("response_preview", utils.TruncateForLog(raw, p.maxLogLen)),
	)

	data, err := decodeJSONResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errMalformedResponse, err)
	}

	return criteria.FromResponse(data, query)
}

var errMalformedResponse = errors.New("malformed classifier response")

func isContractErr(err error) bool {
	return errors.Is(err, errMalformedResponse)
}
