package entities

type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewPageMeta(page, limit int, total int64) PageMeta {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return PageMeta{Page: page, Limit: limit, Total: total, TotalPages: pages}
}
