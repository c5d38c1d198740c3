package models

// MetadataKey is the buffer setting holding an ItemMetadata.
const MetadataKey = "qiita_item"

// ItemMetadata is cached on a buffer once it is linked to a remote item.
type ItemMetadata struct {
	UUID string `json:"uuid" yaml:"uuid"`
	URL  string `json:"url" yaml:"url"`
}

// IsPersisted reports whether the item has been saved remotely at least once.
// A nil receiver is a draft.
func (m *ItemMetadata) IsPersisted() bool {
	return m != nil && m.URL != ""
}

// ListEntry is the two-line row shown in the item selection panel.
type ListEntry struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}
