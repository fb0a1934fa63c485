package model

import "time"

// Badges are the counters shown next to the cart and favorites links
type Badges struct {
	CartItems int       `json:"cart_items"`
	Favorites int       `json:"favorites"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StreamEvent is one frame sent to event stream subscribers
type StreamEvent struct {
	Event string    `json:"event"`
	At    time.Time `json:"at"`
}
