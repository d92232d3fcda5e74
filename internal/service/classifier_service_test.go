package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"klens/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const validClassification = `{
  "title": "Track maintenance schedule",
  "department": "maintenance",
  "documentType": "maintenance_report",
  "language": "bilingual",
  "priority": "high",
  "contentSummary": "Weekly track maintenance plan for the Aluva corridor.",
  "actionItems": [
    {"description": "Inspect switches", "department": "engineering", "deadline": "2025-02-01", "priority": "urgent"}
  ],
  "keyInsights": ["Two sections need re-ballasting"],
  "tags": ["track", "maintenance"],
  "complianceDeadline": "2025-03-31"
}`

func TestClassifierService_DisabledMakesNoCalls(t *testing.T) {
	classifier := NewClassifierService(nil, zap.NewNop())
	assert.False(t, classifier.Enabled())

	summary, ok := classifier.Summarize(context.Background(), "some text")
	assert.False(t, ok)
	assert.Empty(t, summary)

	classification, ok := classifier.Classify(context.Background(), "some text", "a.txt")
	assert.False(t, ok)
	assert.Nil(t, classification)

	var nilClassifier *ClassifierService
	assert.False(t, nilClassifier.Enabled())
	_, ok = nilClassifier.Classify(context.Background(), "x", "a.txt")
	assert.False(t, ok)
}

func TestClassifierService_Summarize(t *testing.T) {
	completer := &fakeCompleter{response: "  A short paragraph.  "}
	classifier := NewClassifierService(completer, zap.NewNop())

	text := strings.Repeat("a", 2000) + strings.Repeat("b", 100)
	summary, ok := classifier.Summarize(context.Background(), text)
	require.True(t, ok)
	assert.Equal(t, "A short paragraph.", summary)

	require.Equal(t, 1, completer.calls())
	assert.Contains(t, completer.prompts[0], strings.Repeat("a", 2000))
	assert.NotContains(t, completer.prompts[0], "ab", "input is cut at 2000 characters")
}

func TestClassifierService_SummarizeFailures(t *testing.T) {
	tests := []struct {
		name      string
		completer *fakeCompleter
	}{
		{"transport error", &fakeCompleter{err: errors.New("status 503")}},
		{"empty content", &fakeCompleter{response: "   "}},
		{"panic", &fakeCompleter{panicMsg: "boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewClassifierService(tt.completer, zap.NewNop())
			summary, ok := classifier.Summarize(context.Background(), "text")
			assert.False(t, ok)
			assert.Empty(t, summary)
		})
	}
}

func TestClassifierService_Classify(t *testing.T) {
	completer := &fakeCompleter{response: "```json\n" + validClassification + "\n```"}
	classifier := NewClassifierService(completer, zap.NewNop())

	got, ok := classifier.Classify(context.Background(), strings.Repeat("മ", 3500), "schedule.txt")
	require.True(t, ok)

	deadline := "2025-03-31"
	assert.Equal(t, &models.Classification{
		Title:          "Track maintenance schedule",
		Department:     models.DepartmentMaintenance,
		DocumentType:   models.DocumentTypeMaintenanceReport,
		Language:       models.LanguageBilingual,
		Priority:       models.PriorityHigh,
		ContentSummary: "Weekly track maintenance plan for the Aluva corridor.",
		ActionItems: []models.ActionItem{{
			Description: "Inspect switches",
			Department:  models.DepartmentEngineering,
			Deadline:    "2025-02-01",
			Priority:    models.PriorityUrgent,
		}},
		KeyInsights:        []string{"Two sections need re-ballasting"},
		Tags:               []string{"track", "maintenance"},
		ComplianceDeadline: &deadline,
	}, got)

	require.Equal(t, 1, completer.calls())
	prompt := completer.prompts[0]
	assert.Contains(t, prompt, "schedule.txt")
	assert.Contains(t, prompt, strings.Repeat("മ", 3000))
	assert.NotContains(t, prompt, strings.Repeat("മ", 3001))
	assert.Contains(t, prompt, "engineering_drawing|maintenance_report")
}

func TestClassifierService_ClassifyRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"no json", "I cannot classify this document."},
		{"malformed json", `{"title": "x", "department": }`},
		{"missing title", `{"department":"finance","documentType":"invoice","language":"english","priority":"low","contentSummary":"s"}`},
		{"blank summary", `{"title":"t","department":"finance","documentType":"invoice","language":"english","priority":"low","contentSummary":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := NewClassifierService(&fakeCompleter{response: tt.response}, zap.NewNop())
			got, ok := classifier.Classify(context.Background(), "text", "a.txt")
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestClassifierService_ClassifyErrorAndPanic(t *testing.T) {
	for _, completer := range []*fakeCompleter{
		{err: errors.New("connection reset")},
		{panicMsg: "nil map"},
	} {
		classifier := NewClassifierService(completer, zap.NewNop())
		got, ok := classifier.Classify(context.Background(), "text", "a.txt")
		assert.False(t, ok)
		assert.Nil(t, got)
	}
}

func TestParseClassification_NormalizesOutOfDomainValues(t *testing.T) {
	got, err := parseClassification(`Here you go:
{"title":" Memo ","department":"Marketing","documentType":"memo","language":"Tamil","priority":"CRITICAL",
 "contentSummary":"Internal memo.","actionItems":[{"description":"","priority":"low"},{"description":"Reply","department":"FINANCE","priority":"soon"}],
 "complianceDeadline":"null"}`)
	require.NoError(t, err)

	assert.Equal(t, "Memo", got.Title)
	assert.Equal(t, models.DepartmentGeneral, got.Department)
	assert.Equal(t, models.DocumentTypeOther, got.DocumentType)
	assert.Equal(t, models.LanguageEnglish, got.Language)
	assert.Equal(t, models.PriorityMedium, got.Priority)
	assert.Equal(t, []models.ActionItem{{
		Description: "Reply",
		Department:  models.DepartmentFinance,
		Priority:    models.PriorityMedium,
	}}, got.ActionItems)
	assert.Equal(t, []string{}, got.KeyInsights)
	assert.Equal(t, []string{}, got.Tags)
	assert.Nil(t, got.ComplianceDeadline)
}

func TestParseClassification_ReportsFirstMissingField(t *testing.T) {
	for i := 0; i < 20; i++ {
		_, err := parseClassification(`{"department":"finance","priority":"high"}`)
		require.Error(t, err)
		assert.EqualError(t, err, `missing required field "title"`)
	}

	_, err := parseClassification(`{"title":"Memo","department":"finance","documentType":"memo","language":"English","priority":"high"}`)
	assert.EqualError(t, err, `missing required field "contentSummary"`)
}
