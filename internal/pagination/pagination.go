package pagination

import "github.com/blitzkrieg267/newsHub/internal/models"

type Pagination struct {
	TotalResults int              `json:"total_results"`
	TotalPages   int              `json:"total_pages"`
	CurrentPage  int              `json:"current_page"`
	NewsPerPage  int              `json:"news_per_page"`
	Results      []models.Article `json:"results"`
}

const NEWS_PER_PAGE = 20

func New(totalResults int, currentPage int) *Pagination {
	if currentPage < 1 {
		currentPage = 1
	}
	return &Pagination{
		TotalResults: totalResults,
		TotalPages:   PageCounter(totalResults),
		CurrentPage:  currentPage,
		NewsPerPage:  NEWS_PER_PAGE,
	}
}

func PageCounter(totalResults int) int {
	totalPages := totalResults / NEWS_PER_PAGE
	if totalPages*NEWS_PER_PAGE < totalResults {
		totalPages++
	}
	if totalPages == 0 {
		totalPages = 1
	}
	return totalPages
}

// Slice вырезает страницу CurrentPage из полного списка результатов.
func (p *Pagination) Slice(all []models.Article) []models.Article {
	start := (p.CurrentPage - 1) * p.NewsPerPage
	if start >= len(all) {
		return []models.Article{}
	}
	end := start + p.NewsPerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
