package dto

// ExportResponse archivo CSV exportado.
type ExportResponse struct {
	CSVContent string `json:"csv_content"`
	Filename   string `json:"filename"`
}

// ImportRequest body JSON alternativo al multipart "file".
type ImportRequest struct {
	CSVContent string `json:"csv_content"`
}

// ImportIssueDTO error o advertencia por fila (row 0 = encabezado).
type ImportIssueDTO struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ImportResponse resultado de la importación; éxito parcial permitido.
type ImportResponse struct {
	ImportedCount int              `json:"imported_count"`
	Errors        []ImportIssueDTO `json:"errors"`
	Warnings      []ImportIssueDTO `json:"warnings"`
}
