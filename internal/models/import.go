package models

// ImportRowError describes one header row that was not loaded.
type ImportRowError struct {
	Row   int               `json:"row"`
	Error string            `json:"error"`
	Data  map[string]string `json:"data"`
}

// ImportResult summarises a spreadsheet import.
type ImportResult struct {
	SuccessCount int              `json:"successCount"`
	ErrorCount   int              `json:"errorCount"`
	Errors       []ImportRowError `json:"errors"`
}

// AddError records a failed row.
func (r *ImportResult) AddError(row int, msg string, data map[string]string) {
	r.ErrorCount++
	r.Errors = append(r.Errors, ImportRowError{Row: row, Error: msg, Data: data})
}

// Summary is the dashboard view of invoice states.
type Summary struct {
	ByStatus        map[string]int `json:"byStatus"`
	Total           int            `json:"total"`
	CriticalPending int            `json:"criticalPending"`
	GeneratedAt     string         `json:"generatedAt"`
}

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

// ReceiptResponse carries the presigned URL of a legalization receipt.
type ReceiptResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}
