package model

import (
	"encoding/json"
	"time"
)

// Document is the server-owned record of one stored file.
// The client only ever reads it; creation and deletion go through the API.
type Document struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Category  Category  `json:"category"`
	FilePath  string    `json:"filePath"`
	CreatedAt time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts both the Mongo-style "_id" and a plain "id".
func (d *Document) UnmarshalJSON(b []byte) error {
	type alias Document
	var raw struct {
		alias
		PlainID string `json:"id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = Document(raw.alias)
	if d.ID == "" {
		d.ID = raw.PlainID
	}
	return nil
}
