package models

type Department string

const (
	DepartmentEngineering Department = "engineering"
	DepartmentMaintenance Department = "maintenance"
	DepartmentOperations  Department = "operations"
	DepartmentFinance     Department = "finance"
	DepartmentHR          Department = "hr"
	DepartmentProcurement Department = "procurement"
	DepartmentSafety      Department = "safety"
	DepartmentLegal       Department = "legal"
	DepartmentExecutive   Department = "executive"
	DepartmentGeneral     Department = "general"
)

type DocumentType string

const (
	DocumentTypeEngineeringDrawing  DocumentType = "engineering_drawing"
	DocumentTypeMaintenanceReport   DocumentType = "maintenance_report"
	DocumentTypeIncidentReport      DocumentType = "incident_report"
	DocumentTypeInvoice             DocumentType = "invoice"
	DocumentTypePurchaseOrder       DocumentType = "purchase_order"
	DocumentTypeRegulatoryDirective DocumentType = "regulatory_directive"
	DocumentTypeSafetyCircular      DocumentType = "safety_circular"
	DocumentTypePolicy              DocumentType = "policy"
	DocumentTypeMeetingMinutes      DocumentType = "meeting_minutes"
	DocumentTypeCorrespondence      DocumentType = "correspondence"
	DocumentTypeOther               DocumentType = "other"
)

type Language string

const (
	LanguageEnglish   Language = "english"
	LanguageMalayalam Language = "malayalam"
	LanguageBilingual Language = "bilingual"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var (
	Departments = []Department{
		DepartmentEngineering, DepartmentMaintenance, DepartmentOperations, DepartmentFinance, DepartmentHR,
		DepartmentProcurement, DepartmentSafety, DepartmentLegal, DepartmentExecutive, DepartmentGeneral,
	}
	DocumentTypes = []DocumentType{
		DocumentTypeEngineeringDrawing, DocumentTypeMaintenanceReport, DocumentTypeIncidentReport,
		DocumentTypeInvoice, DocumentTypePurchaseOrder, DocumentTypeRegulatoryDirective,
		DocumentTypeSafetyCircular, DocumentTypePolicy, DocumentTypeMeetingMinutes,
		DocumentTypeCorrespondence, DocumentTypeOther,
	}
	Languages  = []Language{LanguageEnglish, LanguageMalayalam, LanguageBilingual}
	Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
)

func (d Department) Valid() bool {
	return contains(Departments, d)
}

func (t DocumentType) Valid() bool {
	return contains(DocumentTypes, t)
}

func (l Language) Valid() bool {
	return contains(Languages, l)
}

func (p Priority) Valid() bool {
	return contains(Priorities, p)
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

type ActionItem struct {
	Description string     `json:"description"`
	Department  Department `json:"department"`
	Deadline    string     `json:"deadline"`
	Priority    Priority   `json:"priority"`
}

// Classification is the enrichment produced for a document, either by the
// completion service or by the local fallback.
type Classification struct {
	Title              string       `json:"title"`
	Department         Department   `json:"department"`
	DocumentType       DocumentType `json:"documentType"`
	Language           Language     `json:"language"`
	Priority           Priority     `json:"priority"`
	ContentSummary     string       `json:"contentSummary"`
	ActionItems        []ActionItem `json:"actionItems"`
	KeyInsights        []string     `json:"keyInsights"`
	Tags               []string     `json:"tags"`
	ComplianceDeadline *string      `json:"complianceDeadline"`
}

// Document is the record produced for one ingested file. It is never updated
// after creation; the retention sweeper is the only thing that removes it.
type Document struct {
	ID           string `json:"id" db:"id"`
	OriginalName string `json:"originalName" db:"original_name"`
	StoredPath   string `json:"storedPath" db:"stored_path"`
	SizeBytes    int64  `json:"sizeBytes" db:"size_bytes"`
	Extension    string `json:"extension" db:"extension"`
	MimeType     string `json:"mimeType" db:"mime_type"`
	Summary      string `json:"summary" db:"summary"`
	FileURL      string `json:"fileUrl" db:"file_url"`

	Classification

	// CreatedAt is milliseconds since the Unix epoch.
	CreatedAt int64 `json:"createdAt" db:"created_at"`
}
