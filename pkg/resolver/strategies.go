package resolver

// Strategy builds one search query from a parsed author and title. Build returns ""
// when an operand it needs is missing, and the strategy is skipped.
type Strategy struct {
	Name  string
	Build func(author, title string) string
}

// Strategies are tried in order until one returns a verified result.
var Strategies = []Strategy{
	{
		Name: "title_author",
		Build: func(author, title string) string {
			if author == "" || title == "" {
				return ""
			}
			return "intitle:" + title + "+inauthor:" + author
		},
	},
	{
		// Covers filenames where the two halves were parsed into the wrong slots.
		Name: "author_title",
		Build: func(author, title string) string {
			if author == "" || title == "" {
				return ""
			}
			return "intitle:" + author + "+inauthor:" + title
		},
	},
	{
		Name: "title",
		Build: func(_, title string) string {
			if title == "" {
				return ""
			}
			return "intitle:" + title
		},
	},
	{
		Name: "author",
		Build: func(author, _ string) string {
			if author == "" {
				return ""
			}
			return "intitle:" + author
		},
	},
}
