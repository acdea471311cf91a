package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// MaxPageLimit tope de elementos por página.
const MaxPageLimit = 500

// DefaultPage aplica valores por defecto y topes a Limit/Offset.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas. HasMore evita contar todo el historial.
type PageResponse struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ErrorResponse cuerpo de error HTTP. Kind y Retryable permiten a la UI elegir entre
// "corregir datos" y "reintentar"; Fields alimenta los mensajes por campo.
type ErrorResponse struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Kind      string              `json:"kind,omitempty"`
	Retryable bool                `json:"retryable"`
	Fields    map[string][]string `json:"fields,omitempty"`
	Details   map[string]string   `json:"details,omitempty"`
}
