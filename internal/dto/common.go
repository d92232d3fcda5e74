package dto

type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type HealthResponse struct {
	OK            bool `json:"ok"`
	Classifier    bool `json:"classifier"`
	MetadataStore bool `json:"metadataStore"`
}

type SweepResponse struct {
	OK         bool  `json:"ok"`
	Scanned    int   `json:"scanned"`
	Deleted    int   `json:"deleted"`
	Errors     int   `json:"errors"`
	DurationMS int64 `json:"durationMs"`
}
