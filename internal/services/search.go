package services

import (
	"context"
	"time"

	"github.com/thereayou/flux/internal/apperr"
	"github.com/thereayou/flux/internal/database"
	"github.com/thereayou/flux/internal/search"
)

// SearchQuery параметры поиска из запроса
type SearchQuery struct {
	Text string
	// Date пресет периода: all, 1m, 3m, 1y
	Date      string
	MinRating *int
}

type SearchService struct {
	db  *database.Database
	now func() time.Time
}

func NewSearchService(db *database.Database) *SearchService {
	return &SearchService{db: db, now: time.Now}
}

// Search ищет по публичным репозиториям и публичным группам
func (s *SearchService) Search(ctx context.Context, q SearchQuery) ([]search.Result, error) {
	var opts search.Options

	from, ok := search.DateWindow(q.Date, s.now())
	if !ok {
		return nil, apperr.Validation("date must be one of all, 1m, 3m, 1y")
	}
	opts.DateFrom = from

	if q.MinRating != nil {
		if *q.MinRating < 1 || *q.MinRating > 5 {
			return nil, apperr.Validation("min_rating must be between 1 and 5")
		}
		opts.MinRating = q.MinRating
	}

	items, err := s.items(ctx)
	if err != nil {
		return nil, err
	}
	return search.Search(q.Text, items, opts), nil
}

func (s *SearchService) items(ctx context.Context) ([]search.Item, error) {
	repos, err := s.db.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.db.PublicGroups(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]search.Item, 0, len(repos)+len(groups))
	for _, r := range repos {
		scores := make([]int, 0, len(r.Ratings))
		for _, rating := range r.Ratings {
			scores = append(scores, rating.Score)
		}
		items = append(items, search.Item{
			ID:        r.ID,
			Kind:      search.ItemRepository,
			Title:     r.Title,
			OwnerName: r.CreatorName,
			CreatedAt: r.CreatedAt,
			Ratings:   scores,
		})
	}
	for _, g := range groups {
		items = append(items, search.Item{
			ID:        g.ID,
			Kind:      search.ItemGroup,
			Title:     g.Name,
			OwnerName: g.AdminName,
			Code:      g.JoinCode,
			CreatedAt: g.CreatedAt,
		})
	}
	return items, nil
}
