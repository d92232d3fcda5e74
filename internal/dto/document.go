package dto

import "klens/internal/models"

type ProcessDocumentResponse struct {
	OK       bool             `json:"ok"`
	Document *models.Document `json:"document"`
}

// UploadedFileResponse is the per-file record of the basic upload. It carries
// no id.
type UploadedFileResponse struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Ext      string `json:"ext"`
	MimeType string `json:"mimeType"`
	Summary  string `json:"summary"`
}

type UploadResponse struct {
	OK    bool                   `json:"ok"`
	Files []UploadedFileResponse `json:"files"`
}

type DocumentListResponse struct {
	OK        bool               `json:"ok"`
	Documents []*models.Document `json:"documents"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

type DocumentResponse struct {
	OK       bool             `json:"ok"`
	Document *models.Document `json:"document"`
}
