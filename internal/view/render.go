package view

import (
	"path"
	"strings"
	"time"

	"dockeeper/internal/model"
)

// DefaultPlaceholder is the generic thumbnail for non-image files.
const DefaultPlaceholder = "https://via.placeholder.com/150/0072ff/FFFFFF?Text=FILE"

// DefaultDateLayout renders like en-IN with day numeric, month short and
// year numeric, e.g. "5 Mar 2024".
const DefaultDateLayout = "2 Jan 2006"

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// IsImagePath reports whether the file path ends in an image extension.
// Only the extension decides; case is ignored.
func IsImagePath(filePath string) bool {
	p := strings.ReplaceAll(filePath, "\\", "/")
	return imageExts[strings.ToLower(path.Ext(p))]
}

// Renderer turns records into list items.
type Renderer struct {
	// FileURL maps a server-relative path to the URL serving it.
	FileURL     func(filePath string) string
	Placeholder string
	DateLayout  string
	Location    *time.Location
}

// Render builds the item for one record.
func (r Renderer) Render(doc model.Document) Item {
	fileURL := doc.FilePath
	if r.FileURL != nil {
		fileURL = r.FileURL(doc.FilePath)
	}
	placeholder := r.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}

	it := Item{
		ID:       doc.ID,
		Title:    doc.Title,
		ViewURL:  fileURL,
		Uploaded: r.formatDate(doc.CreatedAt),
	}
	if IsImagePath(doc.FilePath) {
		it.Thumbnail = fileURL
		it.IsImage = true
	} else {
		it.Thumbnail = placeholder
	}
	return it
}

// RenderAll renders docs in order.
func (r Renderer) RenderAll(docs []model.Document) []Item {
	items := make([]Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, r.Render(d))
	}
	return items
}

func (r Renderer) formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	layout := r.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(layout)
}
