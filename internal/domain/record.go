package domain

// Kind names one of the three record collections.
type Kind string

const (
	KindItem       Kind = "item"
	KindBrand      Kind = "brand"
	KindDiscussion Kind = "discussion"
)

// Record is implemented by every canonical record shape.
type Record interface {
	RecordKind() Kind
	RecordID() string
}

// Price ranges a Brand can fall into.
const (
	PriceBudget  = "budget"
	PriceMid     = "mid"
	PricePremium = "premium"
	PriceLuxury  = "luxury"
)

// MaxDiscussionContent bounds discussion content so embedding cost stays bounded.
const MaxDiscussionContent = 5000

// ValidPriceRange reports whether v is one of the known price buckets.
func ValidPriceRange(v string) bool {
	switch v {
	case PriceBudget, PriceMid, PricePremium, PriceLuxury:
		return true
	default:
		return false
	}
}
