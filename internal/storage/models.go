package storage

// Link is the persisted pair of short identifier and original URL.
type Link struct {
	ID          string `json:"id" bson:"id"`
	OriginalURL string `json:"original_url" bson:"originalUrl"`
}

// fileRecord is a single line of the JSON-lines file store.
type fileRecord struct {
	UUID        string `json:"uuid"`
	ID          string `json:"id"`
	OriginalURL string `json:"original_url"`
}
