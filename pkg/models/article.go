package models

// Article is an item stored on the remote service.
type Article struct {
	UUID             string `json:"uuid"`
	Title            string `json:"title"`
	Tags             []Tag  `json:"tags"`
	RawBody          string `json:"raw_body,omitempty"`
	Body             string `json:"body,omitempty"` // Rendered HTML
	Private          bool   `json:"private"`
	URL              string `json:"url,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
	UpdatedAtInWords string `json:"updated_at_in_words,omitempty"`
}

type Tag struct {
	Name string `json:"name" yaml:"name"`
}

// Metadata returns the part of the article that is attached to a buffer.
func (a *Article) Metadata() *ItemMetadata {
	return &ItemMetadata{UUID: a.UUID, URL: a.URL}
}

// ItemPayload is the request body for creating and updating items.
// Private is nil on update, the service keeps the current visibility.
type ItemPayload struct {
	Title   string `json:"title"`
	Tags    []Tag  `json:"tags"`
	Private *bool  `json:"private,omitempty"`
	Body    string `json:"body"`
}
