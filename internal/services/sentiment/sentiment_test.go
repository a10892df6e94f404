package sentiment

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"QuantPull/internal/domain/models"
)

func fptr(v float64) *float64 { return &v }

func article(symbol, title string, published time.Time, score *float64) *models.Article {
	return &models.Article{
		Symbol:        symbol,
		Title:         title,
		URL:           "https://example.com/" + symbol,
		PublishedAt:   published,
		ProviderScore: score,
	}
}

func TestScoreProviderPassThrough(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	art := article("NVDA", "terrible awful news", time.Now(), fptr(0.35))
	require.Equal(t, 0.35, a.Score(art))
}

func TestScoreLexicon(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)

	pos := a.Score(&models.Article{Title: "Great earnings", Description: "investors love the results"})
	require.Greater(t, pos, 0.0)
	require.LessOrEqual(t, pos, 1.0)

	neg := a.Score(&models.Article{Title: "Terrible losses", Description: "investors hate the results"})
	require.Less(t, neg, 0.0)
	require.GreaterOrEqual(t, neg, -1.0)
}

func TestScoreEmptyText(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	require.Zero(t, a.Score(&models.Article{Title: "", Description: "  "}))
}

func TestRelevant(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	keywords := []string{"NVDA", "NVIDIA", ""}

	cases := []struct {
		name  string
		title string
		desc  string
		want  bool
	}{
		{"keyword in title", "NVIDIA beats estimates", "", true},
		{"keyword in description", "Chipmaker rallies", "nvda up 5% after earnings", true},
		{"case-insensitive", "nvidia launches new GPU", "", true},
		{"no keyword", "Apple releases new phone", "cupertino event", false},
		{"blocked topic", "NVIDIA CEO attends sports gala", "", false},
		{"blocked in description", "NVIDIA results", "plus local weather updates", false},
		{"empty article", "", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			art := &models.Article{Title: c.title, Description: c.desc}
			require.Equal(t, c.want, a.Relevant(art, keywords))
		})
	}
}

func TestDeriveKeywords(t *testing.T) {
	profile := &models.CompanyProfile{Symbol: "NVDA", Name: "NVIDIA Corporation"}
	require.Equal(t, []string{"NVDA", "NVIDIA"}, DeriveKeywords("NVDA", profile))

	profile = &models.CompanyProfile{Symbol: "XOM", Name: "Exxon Mobil Corp."}
	require.Equal(t, []string{"XOM", "Exxon Mobil", "Exxon"}, DeriveKeywords("XOM", profile))

	require.Equal(t, []string{"SOXL"}, DeriveKeywords("SOXL", nil))

	// name identical to the symbol adds nothing
	profile = &models.CompanyProfile{Symbol: "SOXL", Name: "soxl"}
	require.Equal(t, []string{"SOXL"}, DeriveKeywords("SOXL", profile))
}

func TestAggregateDay(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	day := time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC)

	rows := a.Aggregate([]*models.Article{
		article("NVDA", "a", day, fptr(0.2)),
		article("NVDA", "b", day.Add(time.Hour), fptr(0.4)),
		article("NVDA", "c", day.Add(2*time.Hour), fptr(0.6)),
	})

	require.Len(t, rows, 1)
	row := rows[0]
	require.Equal(t, "NVDA", row.Symbol)
	require.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), row.Date)
	require.InDelta(t, 0.4, row.Mean, 1e-9)
	require.InDelta(t, 0.1633, row.Std, 1e-9)
	require.Equal(t, 3, row.Count)
	require.Equal(t, 3, row.ArticleCount)
	require.InDelta(t, 0.251, row.Confidence, 1e-3)
}

func TestAggregateConsistentDay(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	day := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	articles := make([]*models.Article, 20)
	for i := range articles {
		articles[i] = article("NVDA", fmt.Sprintf("a%d", i), day, fptr(0.5))
	}

	rows := a.Aggregate(articles)
	require.Len(t, rows, 1)
	require.Zero(t, rows[0].Std)
	require.InDelta(t, 1.0, rows[0].Confidence, 1e-9)
}

func TestAggregateSingleArticle(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	rows := a.Aggregate([]*models.Article{
		article("NVDA", "solo", time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC), fptr(0.8)),
	})

	require.Len(t, rows, 1)
	require.True(t, math.IsNaN(rows[0].Std))
	require.InDelta(t, 0.05, rows[0].Confidence, 1e-9)
}

func TestAggregateEmpty(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	require.Nil(t, a.Aggregate(nil))
}

func TestAggregateGroupsByUTCDate(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	zone := time.FixedZone("CET", 3600)

	rows := a.Aggregate([]*models.Article{
		// 00:30 CET on Jan 6 is still Jan 5 in UTC
		article("NVDA", "late", time.Date(2024, 1, 6, 0, 30, 0, 0, zone), fptr(0.1)),
		article("NVDA", "same day", time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC), fptr(0.3)),
		article("NVDA", "next day", time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC), fptr(0.5)),
	})

	require.Len(t, rows, 2)
	require.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), rows[0].Date)
	require.Equal(t, 2, rows[0].Count)
	require.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), rows[1].Date)
	require.Equal(t, 1, rows[1].Count)
}

func TestAggregateSortsBySymbolThenDate(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	d1 := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)

	rows := a.Aggregate([]*models.Article{
		article("XOM", "x2", d2, fptr(0.1)),
		article("NVDA", "n1", d1, fptr(0.1)),
		article("XOM", "x1", d1, fptr(0.1)),
		article("NVDA", "n2", d2, fptr(0.1)),
	})

	require.Len(t, rows, 4)
	require.Equal(t, "NVDA", rows[0].Symbol)
	require.Equal(t, "NVDA", rows[1].Symbol)
	require.Equal(t, "XOM", rows[2].Symbol)
	require.Equal(t, "XOM", rows[3].Symbol)
	require.True(t, rows[0].Date.Before(rows[1].Date))
	require.True(t, rows[2].Date.Before(rows[3].Date))
}

func TestAggregateCountsOnlyLinkedArticles(t *testing.T) {
	a := NewAnalyzer(Config{}, nil)
	day := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	noURL := article("NVDA", "scraped", day, fptr(0.4))
	noURL.URL = ""

	rows := a.Aggregate([]*models.Article{
		article("NVDA", "a", day, fptr(0.4)),
		article("NVDA", "b", day, fptr(0.4)),
		noURL,
	})

	require.Len(t, rows, 1)
	require.Equal(t, 3, rows[0].Count)
	require.Equal(t, 2, rows[0].ArticleCount)
	// volume factor uses the linked count
	require.InDelta(t, 0.2, rows[0].Confidence, 1e-9)
}
