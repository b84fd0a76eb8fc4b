package domain

// StyleDiscussion is a community thread or post about style.
// Upvotes and NumComments are informational only.
type StyleDiscussion struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Content          string   `json:"content"`
	MentionedBrands  []string `json:"mentioned_brands"`
	MentionedItems   []string `json:"mentioned_items"`
	StyleDescriptors []string `json:"style_descriptors"`
	SourceURL        string   `json:"source_url"`
	SourceType       string   `json:"source_type"`
	Subreddit        string   `json:"subreddit,omitempty"`
	Upvotes          int      `json:"upvotes"`
	NumComments      int      `json:"num_comments"`
	CreatedAt        string   `json:"created_at,omitempty"`
}

func (StyleDiscussion) RecordKind() Kind    { return KindDiscussion }
func (d StyleDiscussion) RecordID() string { return d.ID }

// TruncateContent cuts s to at most limit runes.
func TruncateContent(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
