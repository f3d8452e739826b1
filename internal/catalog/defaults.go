package catalog

import "github.com/angelmondragon/bakery-backend/pkg/types"

// DefaultCategories is the seed catalog written by `bakeryctl catalog seed`
// when no revision exists yet.
func DefaultCategories() types.Catalog {
	return types.Catalog{
		{
			Title: "לחם חיטה מלאה",
			Price: 24,
			Items: []types.CatalogItem{
				{ID: 1, Name: "בציפוי צ'יה"},
				{ID: 2, Name: "בציפוי שומשום"},
				{ID: 3, Name: "עם עגבניות מיובשות"},
				{ID: 4, Name: "עם זיתים"},
			},
		},
		{
			Title: "לחם זרעים",
			Price: 28,
			Items: []types.CatalogItem{
				{ID: 5, Name: "עם שומשום"},
				{ID: 6, Name: "עם גרעיני דלעת"},
				{ID: 7, Name: "עם צ'יה"},
				{ID: 8, Name: "עם פשתן"},
				{ID: 9, Name: "עם פרג"},
			},
		},
		{
			Title: "לחם כוסמין",
			Price: 28,
			Items: []types.CatalogItem{
				{ID: 10, Name: "בציפוי שומשום"},
				{ID: 11, Name: "בציפוי צ'יה"},
				{ID: 12, Name: "עם פרג ואגוזים"},
			},
		},
		{
			Title: "לחם ארבעה קמחים",
			Price: 28,
			Items: []types.CatalogItem{
				{ID: 13, Name: "בציפוי שומשום"},
				{ID: 14, Name: "בציפוי זרעים"},
			},
		},
	}
}
