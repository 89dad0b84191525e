package data

import "time"

// fallbackEpoch dates the built-in articles; it only matters for display.
var fallbackEpoch = time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)

var fallbackArticles = []Article{
	{
		Title:   "Breaking: Major Economic Development Announced",
		Slug:    "breaking-major-economic-development-announced",
		Excerpt: "A sample article to demonstrate the news portal functionality.",
		Content: "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. " +
			"Ut enim ad minim veniam, quis nostrud exercitation ullamco laboris. This is a sample article to demonstrate the news portal functionality.",
	},
	{
		Title:   "Technology Advances in 2025",
		Slug:    "technology-advances-in-2025",
		Excerpt: "The technology sector continues to evolve rapidly.",
		Content: "Sed ut perspiciatis unde omnis iste natus error sit voluptatem accusantium doloremque laudantium. " +
			"Totam rem aperiam, eaque ipsa quae ab illo inventore veritatis et quasi architecto beatae vitae dicta sunt. The technology sector continues to evolve rapidly.",
	},
	{
		Title:   "Global Climate Summit Results",
		Slug:    "global-climate-summit-results",
		Excerpt: "International cooperation on climate change reaches new milestones.",
		Content: "At vero eos et accusamus et iusto odio dignissimos ducimus qui blanditiis praesentium voluptatum deleniti atque corrupti quos dolores. " +
			"International cooperation on climate change reaches new milestones.",
	},
	{
		Title:   "Sports Championship Update",
		Slug:    "sports-championship-update",
		Excerpt: "The championship season brings exciting developments.",
		Content: "Et harum quidem rerum facilis est et expedita distinctio. Nam libero tempore, cum soluta nobis est eligendi optio cumque nihil impedit. " +
			"The championship season brings exciting developments.",
	},
	{
		Title:   "Cultural Festival Highlights",
		Slug:    "cultural-festival-highlights",
		Excerpt: "Local cultural events showcase community spirit and diversity.",
		Content: "Temporibus autem quibusdam et aut officiis debitis aut rerum necessitatibus saepe eveniet ut et voluptates repudiandae sint. " +
			"Local cultural events showcase community spirit and diversity.",
	},
}

// FallbackArticles returns up to limit built-in published articles, newest first.
// They are served when the store is unreachable so the public site still renders.
// Each call returns fresh copies.
func FallbackArticles(limit int) []*Article {
	if limit <= 0 || limit > len(fallbackArticles) {
		limit = len(fallbackArticles)
	}
	out := make([]*Article, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, fallbackArticle(i))
	}
	return out
}

// FallbackArticle looks up a built-in article by slug.
func FallbackArticle(slug string) (*Article, bool) {
	for i := range fallbackArticles {
		if fallbackArticles[i].Slug == slug {
			return fallbackArticle(i), true
		}
	}
	return nil, false
}

func fallbackArticle(i int) *Article {
	a := fallbackArticles[i]
	a.ID = -int64(i + 1) // never collides with a stored row
	a.Author = "Admin"
	a.Status = StatusPublished
	a.CreatedAt = fallbackEpoch.Add(-time.Duration(i) * time.Hour)
	a.UpdatedAt = a.CreatedAt
	return &a
}
