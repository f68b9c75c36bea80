package dto

type ScrapeURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type DocumentTextResponse struct {
	Text           string `json:"text"`
	Source         string `json:"source"`
	TotalPages     int    `json:"total_pages,omitempty"`
	ExtractedPages int    `json:"extracted_pages,omitempty"`
}
