// Package search фильтрует и упорядочивает публичные группы и репозитории.
package search

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type ItemKind string

const (
	ItemGroup      ItemKind = "group"
	ItemRepository ItemKind = "repository"
)

// Item то, что можно найти. Ratings пусто у групп.
type Item struct {
	ID        uuid.UUID
	Kind      ItemKind
	Title     string
	OwnerName string
	Code      string
	CreatedAt time.Time
	Ratings   []int
}

type Options struct {
	DateFrom  *time.Time
	MinRating *int
}

func (o Options) empty() bool {
	return o.DateFrom == nil && o.MinRating == nil
}

type Result struct {
	ID            uuid.UUID `json:"id"`
	Kind          ItemKind  `json:"kind"`
	Title         string    `json:"title"`
	OwnerName     string    `json:"owner_name"`
	Code          string    `json:"code,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Normalize раскладывает юникод, убирает диакритику и регистр,
// заменяет не-словесные символы пробелами и схлопывает пробелы.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	out = nonWord.ReplaceAllString(out, " ")
	return strings.Join(strings.Fields(out), " ")
}

func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

func compact(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

func haystack(it Item) string {
	return Normalize(strings.Join([]string{it.Title, it.OwnerName, it.Code}, " "))
}

// Average среднее арифметическое оценок, 0 если оценок нет
func Average(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

func matches(tokens []string, compactQuery string, it Item) bool {
	if len(tokens) == 0 {
		return true
	}
	hay := haystack(it)

	all := true
	for _, tok := range tokens {
		if !strings.Contains(hay, tok) {
			all = false
			break
		}
	}
	if all {
		return true
	}
	return strings.Contains(compact(hay), compactQuery)
}

// Search возвращает подходящие элементы, новые сначала.
// Пустой запрос без фильтров ничего не возвращает.
func Search(query string, items []Item, opts Options) []Result {
	tokens := Tokenize(query)
	if len(tokens) == 0 && opts.empty() {
		return []Result{}
	}
	compactQuery := compact(strings.Join(tokens, " "))

	results := make([]Result, 0, len(items))
	for _, it := range items {
		if opts.DateFrom != nil && it.CreatedAt.Before(*opts.DateFrom) {
			continue
		}
		avg := Average(it.Ratings)
		if opts.MinRating != nil && avg < float64(*opts.MinRating) {
			continue
		}
		if !matches(tokens, compactQuery, it) {
			continue
		}
		results = append(results, Result{
			ID:            it.ID,
			Kind:          it.Kind,
			Title:         it.Title,
			OwnerName:     it.OwnerName,
			Code:          it.Code,
			CreatedAt:     it.CreatedAt,
			AverageRating: avg,
			RatingCount:   len(it.Ratings),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].Title < results[j].Title
	})
	return results
}

// DateWindow переводит пресет периода (all, 1m, 3m, 1y) в нижнюю границу даты
func DateWindow(preset string, now time.Time) (*time.Time, bool) {
	var from time.Time
	switch strings.ToLower(strings.TrimSpace(preset)) {
	case "", "all":
		return nil, true
	case "1m":
		from = now.AddDate(0, -1, 0)
	case "3m":
		from = now.AddDate(0, -3, 0)
	case "1y":
		from = now.AddDate(-1, 0, 0)
	default:
		return nil, false
	}
	return &from, true
}
