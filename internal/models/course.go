package models

// Course represents a purchasable course offering
type Course struct {
	ID          string  `json:"_id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Duration    string  `json:"duration,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty"`
}
