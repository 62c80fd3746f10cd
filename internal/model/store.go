package model

// Store is a row in the `stores` table.  A store owns many items and many
// tags; store names are unique.
type Store struct {
	ID   uint64 // stores.id
	Name string // stores.name
}

// Item is a row in the `items` table.  Every item belongs to exactly one store.
type Item struct {
	ID      uint64  // items.id
	Name    string  // items.name
	Price   float64 // items.price, never negative
	StoreID uint64  // items.store_id
}

// Tag is a row in the `tags` table.  Tag names are unique within a store.
type Tag struct {
	ID      uint64 // tags.id
	Name    string // tags.name
	StoreID uint64 // tags.store_id
}

// ItemTag is the explicit link entity between an item and a tag (table
// `items_tags`).  A given (ItemID, TagID) pair appears at most once, and the
// item and tag always belong to the same store.
type ItemTag struct {
	ID     uint64 // items_tags.id
	ItemID uint64 // items_tags.item_id
	TagID  uint64 // items_tags.tag_id
}
