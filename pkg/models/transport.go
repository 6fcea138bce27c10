package models

// AnalysisRequest asks for one remote image to be analysed. URL may be an
// http(s) URL or an azblob://container/blob location.
type AnalysisRequest struct {
	URL string `json:"url" binding:"required"`
	// Profile selects a named quality profile instead of the server default.
	Profile string `json:"profile,omitempty"`
}

// BatchRequest asks for several remote images to be analysed in order.
type BatchRequest struct {
	URLs    []string `json:"urls" binding:"required,min=1"`
	Profile string   `json:"profile,omitempty"`
}

// HistoryResponse lists stored analyses, newest first.
type HistoryResponse struct {
	FilePath string            `json:"file_path,omitempty"`
	Results  []*StoredAnalysis `json:"results"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
