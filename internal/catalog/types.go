package catalog

// Product is the slice of the upstream product record this service consumes.
// The upstream API owns the canonical schema.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Stars       float64 `json:"stars,omitempty"`
	CategoryID  int64   `json:"category_id,omitempty"`
}

// Category as returned by GET /categories. TopProducts responses embed a
// products array per category.
type Category struct {
	ID       int64     `json:"id"`
	Name     string    `json:"category_name"`
	Products []Product `json:"products,omitempty"`
}

// ProductPage is the paginated listing shape of GET /products.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip,omitempty"`
	Limit    int       `json:"limit,omitempty"`
}

// ProductQuery carries the catalog browse state (search, sort, pagination,
// category filter) that becomes query parameters on GET /products.
type ProductQuery struct {
	Limit    int
	Skip     int
	SortBy   string
	Order    string
	Search   string
	Category string
	IDs      []int64
}
