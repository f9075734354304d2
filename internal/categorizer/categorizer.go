package categorizer

import "strings"

// DefaultCategory возвращается, когда ни одно ключевое слово не совпало.
const DefaultCategory = "General"

// Порядок имеет значение: первая совпавшая рубрика выигрывает.
var categories = []struct {
	label    string
	keywords []string
}{
	{"Technology", []string{
		"tech", "software", "hardware", "startup", "programming", "developer",
		"linux", "windows", "android", "iphone", "apple", "google", "microsoft",
		"chip", "semiconductor", "cyber", "hacker", "cloud", "open source",
	}},
	{"AI", []string{
		"artificial intelligence", " ai ", "machine learning", "neural network",
		"chatgpt", "llm", "deep learning", "generative",
	}},
	{"Politics", []string{
		"election", "president", "parliament", "senate", "congress", "minister",
		"government", "policy", "vote", "campaign", "diplomat", "sanction",
	}},
	{"Business", []string{
		"market", "stock", "economy", "inflation", "startup funding", "merger",
		"acquisition", "earnings", "revenue", "investor", "bank", "trade",
	}},
	{"Science", []string{
		"science", "research", "study finds", "nasa", "space", "physics",
		"climate", "biology", "quantum", "telescope", "experiment",
	}},
	{"Health", []string{
		"health", "covid", "vaccine", "hospital", "disease", "cancer",
		"medical", "medicine", "mental health", "virus",
	}},
	{"Sports", []string{
		"football", "soccer", "basketball", "tennis", "olympic", "championship",
		"league", "tournament", "match", "world cup", "nba", "nfl",
	}},
	{"Entertainment", []string{
		"movie", "film", "music", "album", "celebrity", "netflix", "box office",
		"tv series", "festival", "concert",
	}},
}

// Categorize подбирает рубрику по ключевым словам в заголовке и описании.
// Функция чистая и тотальная: всегда возвращает какую-то рубрику.
func Categorize(title, description string) string {
	// Пробелы по краям, чтобы паттерны вида " ai " совпадали на границах текста.
	text := " " + strings.ToLower(title+" "+description) + " "
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				return c.label
			}
		}
	}
	return DefaultCategory
}

// Labels возвращает все известные рубрики, включая рубрику по умолчанию.
func Labels() []string {
	labels := make([]string, 0, len(categories)+1)
	for _, c := range categories {
		labels = append(labels, c.label)
	}
	return append(labels, DefaultCategory)
}
