package types

import "time"

// Upload records an object the service stored or signed for a client, so
// that objects no listing ends up referencing can be collected later.
type Upload struct {
	ID        int64     `json:"id" db:"id"`
	ObjectKey string    `json:"object_key" db:"object_key"`
	URL       string    `json:"url" db:"url"`
	Backend   string    `json:"backend" db:"backend"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DirectUpload describes how a client sends bytes straight to the object
// store. For PUT uploads the body is the raw file; for POST uploads the
// fields are sent as multipart form values along with a "file" part.
type DirectUpload struct {
	Method    string            `json:"method"`
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	PublicURL string            `json:"public_url"`
	ObjectKey string            `json:"object_key"`
}
