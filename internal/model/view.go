package model

// The types below are the JSON shapes returned by the API.  Plain views omit
// relationships so nested objects never recurse.

type PlainStore struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type PlainItem struct {
	ID    uint64  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type PlainTag struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// StoreView is a store with all its items and tags.
type StoreView struct {
	ID    uint64      `json:"id"`
	Name  string      `json:"name"`
	Items []PlainItem `json:"items"`
	Tags  []PlainTag  `json:"tags"`
}

// ItemView is an item with its store and linked tags.
type ItemView struct {
	ID    uint64     `json:"id"`
	Name  string     `json:"name"`
	Price float64    `json:"price"`
	Store PlainStore `json:"store"`
	Tags  []PlainTag `json:"tags"`
}

// TagView is a tag with its store and linked items.
type TagView struct {
	ID    uint64      `json:"id"`
	Name  string      `json:"name"`
	Store PlainStore  `json:"store"`
	Items []PlainItem `json:"items"`
}

// LinkView is returned by the tag link and unlink operations.
type LinkView struct {
	Message string   `json:"message"`
	Item    ItemView `json:"item"`
	Tag     TagView  `json:"tag"`
}

func (s Store) Plain() PlainStore { return PlainStore{ID: s.ID, Name: s.Name} }
func (i Item) Plain() PlainItem   { return PlainItem{ID: i.ID, Name: i.Name, Price: i.Price} }
func (t Tag) Plain() PlainTag     { return PlainTag{ID: t.ID, Name: t.Name} }

// PlainItems converts items to their plain views; never returns nil.
func PlainItems(items []Item) []PlainItem {
	out := make([]PlainItem, 0, len(items))
	for _, it := range items {
		out = append(out, it.Plain())
	}
	return out
}

// PlainTags converts tags to their plain views; never returns nil.
func PlainTags(tags []Tag) []PlainTag {
	out := make([]PlainTag, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Plain())
	}
	return out
}
