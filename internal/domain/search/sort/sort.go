package sort

// Option is the ordering applied to the admissible set before pagination.
type Option string

// Sort option constants.
const (
	Relevance  Option = "relevance"
	PriceAsc   Option = "price_asc"
	PriceDesc  Option = "price_desc"
	RatingDesc Option = "rating_desc"
	Newest     Option = "newest"
)

// IsValid checks if the option is one of the supported values.
func (o Option) IsValid() bool {
	switch o {
	case Relevance, PriceAsc, PriceDesc, RatingDesc, Newest:
		return true
	}
	return false
}
