package view

import "dockeeper/internal/model"

// UploadForm is the input state of one category's upload form. A
// successful upload resets it; a failed one leaves it as the user typed it.
type UploadForm struct {
	Category model.Category
	Title    string
	FilePath string
	Fields   map[string]string
}

// NewUploadForm returns an empty form bound to c.
func NewUploadForm(c model.Category) *UploadForm {
	return &UploadForm{Category: c}
}

// Reset clears every input except the category the form belongs to.
func (f *UploadForm) Reset() {
	f.Title = ""
	f.FilePath = ""
	f.Fields = nil
}

// Empty reports whether the form holds no user input.
func (f *UploadForm) Empty() bool {
	return f.Title == "" && f.FilePath == "" && len(f.Fields) == 0
}
