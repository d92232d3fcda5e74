package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"klens/internal/models"

	"go.uber.org/zap"
)

const (
	summarizeInputChars = 2000
	classifyInputChars  = 3000
)

const summarizeSystemPrompt = `You are a document assistant for a metro rail operator. You write short, factual summaries of internal documents for busy staff.`

const classifySystemPrompt = `You are a document classifier for a metro rail operator. You read internal documents (English, Malayalam or both) and return structured metadata as a single JSON object. You never add commentary outside the JSON.`

// ClassifierService enriches extracted text through a completion model. Every
// failure is reported as "no result" so callers can fall back; nothing here
// returns an error or panics into the ingestion path.
type ClassifierService struct {
	completer Completer
	logger    *zap.Logger
}

// NewClassifierService accepts a nil completer, which disables the classifier.
func NewClassifierService(completer Completer, logger *zap.Logger) *ClassifierService {
	return &ClassifierService{
		completer: completer,
		logger:    logger,
	}
}

func (s *ClassifierService) Enabled() bool {
	return s != nil && s.completer != nil
}

// Summarize asks for a one-paragraph summary of the first 2000 characters.
func (s *ClassifierService) Summarize(ctx context.Context, text string) (string, bool) {
	if !s.Enabled() {
		return "", false
	}

	input, _ := truncateRunes(text, summarizeInputChars)
	prompt := fmt.Sprintf(`Summarize the following document in one concise paragraph. Reply with the summary text only.

Document:
%s`, input)

	content, err := s.complete(ctx, summarizeSystemPrompt, prompt)
	if err != nil {
		s.logger.Warn("Summarization failed", zap.Error(err))
		classifierCalls.WithLabelValues("summarize", "error").Inc()
		return "", false
	}

	summary := strings.TrimSpace(content)
	if summary == "" {
		s.logger.Warn("Summarization returned empty content")
		classifierCalls.WithLabelValues("summarize", "error").Inc()
		return "", false
	}

	classifierCalls.WithLabelValues("summarize", "ok").Inc()
	return summary, true
}

// Classify asks for structured metadata over the first 3000 characters.
func (s *ClassifierService) Classify(ctx context.Context, text, filename string) (*models.Classification, bool) {
	if !s.Enabled() {
		return nil, false
	}

	input, _ := truncateRunes(text, classifyInputChars)
	content, err := s.complete(ctx, classifySystemPrompt, buildClassifyPrompt(input, filename))
	if err != nil {
		s.logger.Warn("Classification failed", zap.String("file", filename), zap.Error(err))
		classifierCalls.WithLabelValues("classify", "error").Inc()
		return nil, false
	}

	classification, err := parseClassification(content)
	if err != nil {
		s.logger.Warn("Classification response could not be parsed",
			zap.String("file", filename),
			zap.Error(err),
		)
		classifierCalls.WithLabelValues("classify", "invalid").Inc()
		return nil, false
	}

	s.logger.Info("Document classified",
		zap.String("file", filename),
		zap.String("department", string(classification.Department)),
		zap.String("document_type", string(classification.DocumentType)),
	)
	classifierCalls.WithLabelValues("classify", "ok").Inc()
	return classification, true
}

func (s *ClassifierService) complete(ctx context.Context, systemPrompt, prompt string) (content string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completion panicked: %v", r)
		}
	}()
	return s.completer.Complete(ctx, systemPrompt, prompt)
}

func buildClassifyPrompt(text, filename string) string {
	return fmt.Sprintf(`Classify the document below.

IMPORTANT: return ONLY a valid JSON object, no markdown and no comments.

File name: %s

Document:
%s

Return JSON in exactly this format:
{
  "title": "short descriptive title",
  "department": "%s",
  "documentType": "%s",
  "language": "%s",
  "priority": "%s",
  "contentSummary": "two or three sentence summary",
  "actionItems": [
    {"description": "what must be done", "department": "responsible department", "deadline": "YYYY-MM-DD or empty", "priority": "low|medium|high|urgent"}
  ],
  "keyInsights": ["important fact"],
  "tags": ["keyword"],
  "complianceDeadline": "YYYY-MM-DD or null"
}

RULES:
- Use only the listed values for department, documentType, language and priority
- If there are no action items, return an empty array
- complianceDeadline is null unless the document sets a regulatory or contractual deadline`,
		filename,
		text,
		joinEnum(models.Departments),
		joinEnum(models.DocumentTypes),
		joinEnum(models.Languages),
		joinEnum(models.Priorities),
	)
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, "|")
}

type classificationPayload struct {
	Title              string              `json:"title"`
	Department         string              `json:"department"`
	DocumentType       string              `json:"documentType"`
	Language           string              `json:"language"`
	Priority           string              `json:"priority"`
	ContentSummary     string              `json:"contentSummary"`
	ActionItems        []actionItemPayload `json:"actionItems"`
	KeyInsights        []string            `json:"keyInsights"`
	Tags               []string            `json:"tags"`
	ComplianceDeadline *string             `json:"complianceDeadline"`
}

type actionItemPayload struct {
	Description string `json:"description"`
	Department  string `json:"department"`
	Deadline    string `json:"deadline"`
	Priority    string `json:"priority"`
}

// parseClassification extracts the JSON object from a model reply, which
// may be wrapped in markdown or surrounded by prose.
func parseClassification(content string) (*models.Classification, error) {
	content = strings.TrimSpace(content)

	jsonStart := strings.Index(content, "{")
	jsonEnd := strings.LastIndex(content, "}")
	if jsonStart == -1 || jsonEnd < jsonStart {
		return nil, fmt.Errorf("no JSON object in response")
	}

	jsonStr := content[jsonStart : jsonEnd+1]

	var payload classificationPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		jsonStr = strings.TrimSpace(jsonStr)
		jsonStr = strings.TrimPrefix(jsonStr, "```json")
		jsonStr = strings.TrimPrefix(jsonStr, "```")
		jsonStr = strings.TrimSuffix(jsonStr, "```")
		jsonStr = strings.TrimSpace(jsonStr)

		if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}
	}

	return payload.toClassification()
}

func (p *classificationPayload) toClassification() (*models.Classification, error) {
	required := []struct{ name, value string }{
		{"title", p.Title},
		{"department", p.Department},
		{"documentType", p.DocumentType},
		{"language", p.Language},
		{"priority", p.Priority},
		{"contentSummary", p.ContentSummary},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return nil, fmt.Errorf("missing required field %q", field.name)
		}
	}

	c := &models.Classification{
		Title:          strings.TrimSpace(p.Title),
		Department:     normalizeDepartment(p.Department),
		DocumentType:   normalizeDocumentType(p.DocumentType),
		Language:       normalizeLanguage(p.Language),
		Priority:       normalizePriority(p.Priority),
		ContentSummary: strings.TrimSpace(p.ContentSummary),
		ActionItems:    make([]models.ActionItem, 0, len(p.ActionItems)),
		KeyInsights:    nonNil(p.KeyInsights),
		Tags:           nonNil(p.Tags),
	}

	for _, item := range p.ActionItems {
		if strings.TrimSpace(item.Description) == "" {
			continue
		}
		c.ActionItems = append(c.ActionItems, models.ActionItem{
			Description: strings.TrimSpace(item.Description),
			Department:  normalizeDepartment(item.Department),
			Deadline:    strings.TrimSpace(item.Deadline),
			Priority:    normalizePriority(item.Priority),
		})
	}

	if p.ComplianceDeadline != nil {
		if deadline := strings.TrimSpace(*p.ComplianceDeadline); deadline != "" && !strings.EqualFold(deadline, "null") {
			c.ComplianceDeadline = &deadline
		}
	}

	return c, nil
}

func normalizeDepartment(v string) models.Department {
	d := models.Department(strings.ToLower(strings.TrimSpace(v)))
	if !d.Valid() {
		return models.DepartmentGeneral
	}
	return d
}

func normalizeDocumentType(v string) models.DocumentType {
	t := models.DocumentType(strings.ToLower(strings.TrimSpace(v)))
	if !t.Valid() {
		return models.DocumentTypeOther
	}
	return t
}

func normalizeLanguage(v string) models.Language {
	l := models.Language(strings.ToLower(strings.TrimSpace(v)))
	if !l.Valid() {
		return models.LanguageEnglish
	}
	return l
}

func normalizePriority(v string) models.Priority {
	p := models.Priority(strings.ToLower(strings.TrimSpace(v)))
	if !p.Valid() {
		return models.PriorityMedium
	}
	return p
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
