package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"dockeeper/internal/http/client"
	"dockeeper/internal/model"
	"dockeeper/internal/notify"
	"dockeeper/internal/prompt"
	"dockeeper/internal/session"
	"dockeeper/internal/view"
)

// DeleteQuestion is asked before any document is deleted.
const DeleteQuestion = "Are you sure you want to delete this document?"

// DocumentService defines the document use cases over one Board.
type DocumentService interface {
	// FetchDocuments replaces the category's rendered list with the server's.
	// Without a token it returns nil and sends nothing.
	FetchDocuments(ctx context.Context, category model.Category) error

	// UploadDocument sends the form's file and metadata, then refetches the
	// category. The form is reset only on success.
	UploadDocument(ctx context.Context, form *view.UploadForm) error

	// DeleteDocument asks for confirmation, deletes the record and removes
	// only its rendered item.
	DeleteDocument(ctx context.Context, category model.Category, id string) error
}

// DocumentDeps are the collaborators of a DocumentService.
type DocumentDeps struct {
	API       client.API
	Store     session.Store
	Board     *view.Board
	Renderer  view.Renderer
	Confirmer prompt.Confirmer
	Notifier  notify.Notifier
	Logger    *slog.Logger
	// Open reads the file to upload; os.Open when nil.
	Open func(name string) (io.ReadCloser, error)
}

type documentService struct {
	api       client.API
	store     session.Store
	board     *view.Board
	renderer  view.Renderer
	confirmer prompt.Confirmer
	notifier  notify.Notifier
	logger    *slog.Logger
	open      func(name string) (io.ReadCloser, error)
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(d DocumentDeps) DocumentService {
	s := &documentService{
		api:       d.API,
		store:     d.Store,
		board:     d.Board,
		renderer:  d.Renderer,
		confirmer: d.Confirmer,
		notifier:  d.Notifier,
		logger:    d.Logger,
		open:      d.Open,
	}
	if s.board == nil {
		s.board = view.NewBoard()
	}
	if s.renderer.FileURL == nil && s.api != nil {
		s.renderer.FileURL = s.api.FileURL
	}
	if s.confirmer == nil {
		s.confirmer = prompt.Always(false)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.open == nil {
		s.open = func(name string) (io.ReadCloser, error) { return os.Open(name) }
	}
	return s
}

func (s *documentService) token() (string, bool) {
	tok, ok, err := s.store.Token()
	if err != nil {
		s.logger.Warn("session_read_failed", "error", err.Error())
		return "", false
	}
	return tok, ok && tok != ""
}

func (s *documentService) FetchDocuments(ctx context.Context, category model.Category) error {
	tok, ok := s.token()
	if !ok {
		return nil
	}
	list := s.board.List(category)
	if list == nil {
		return fmt.Errorf("fetch documents: %w: %q", model.ErrUnknownCategory, category)
	}

	gen := list.Begin()
	docs, err := s.api.ListDocuments(ctx, tok, category)

	// A navigation or a newer fetch made this response irrelevant.
	if ctx.Err() != nil || !list.Current(gen) {
		s.logger.Debug("fetch_discarded", "category", string(category))
		return ctx.Err()
	}
	if err != nil {
		ae := newAPIError("fetch documents", ErrFetchFailed, "Could not fetch documents", err, false)
		s.logger.Info("fetch_failed", "category", string(category), "status", ae.Status, "error", err.Error())
		notify.Failure(s.notifier, ae.Message)
		return ae
	}

	list.Apply(gen, s.renderer.RenderAll(docs))
	s.logger.Debug("fetch_applied", "category", string(category), "count", len(docs))
	return nil
}

func (s *documentService) UploadDocument(ctx context.Context, form *view.UploadForm) error {
	tok, ok := s.token()
	if !ok {
		notify.Failure(s.notifier, "You must be logged in")
		return ErrUnauthenticated
	}
	if form == nil || !form.Category.Valid() {
		notify.Failure(s.notifier, "Please choose a valid category")
		return fmt.Errorf("%w: invalid category", ErrValidation)
	}
	if form.FilePath == "" {
		notify.Failure(s.notifier, "Please choose a file to upload")
		return fmt.Errorf("%w: no file selected", ErrValidation)
	}

	f, err := s.open(form.FilePath)
	if err != nil {
		notify.Failure(s.notifier, "Could not read "+filepath.Base(form.FilePath))
		return fmt.Errorf("%w: open file: %v", ErrValidation, err)
	}
	defer f.Close()

	_, err = s.api.UploadDocument(ctx, tok, client.Upload{
		Category: form.Category,
		Title:    form.Title,
		Fields:   form.Fields,
		FileName: filepath.Base(form.FilePath),
		File:     f,
	})
	if err != nil {
		ae := newAPIError("upload document", ErrUploadFailed, "Upload failed", err, true)
		s.logger.Info("upload_failed", "category", string(form.Category), "status", ae.Status, "error", err.Error())
		notify.Failure(s.notifier, ae.Message)
		return ae
	}

	notify.Success(s.notifier, "Document uploaded successfully!")
	category := form.Category
	form.Reset()
	return s.FetchDocuments(ctx, category)
}

func (s *documentService) DeleteDocument(ctx context.Context, category model.Category, id string) error {
	tok, ok := s.token()
	if !ok {
		notify.Failure(s.notifier, "You must be logged in")
		return ErrUnauthenticated
	}

	confirmed, err := s.confirmer.Confirm(ctx, DeleteQuestion)
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	if !confirmed {
		return ErrCancelled
	}

	if err := s.api.DeleteDocument(ctx, tok, id); err != nil {
		ae := newAPIError("delete document", ErrDeleteFailed, "Could not delete document", err, true)
		s.logger.Info("delete_failed", "id", id, "status", ae.Status, "error", err.Error())
		notify.Failure(s.notifier, ae.Message)
		return ae
	}

	removed := false
	if list := s.board.List(category); list != nil {
		removed = list.Remove(id)
	}
	if !removed {
		s.logger.Debug("delete_item_not_rendered", "id", id, "category", string(category))
	}
	notify.Success(s.notifier, "Document deleted successfully.")
	return nil
}

// IsQuiet reports whether err needs no further report: it was already
// shown to the user, or the user chose it.
func IsQuiet(err error) bool {
	var ae *APIError
	return errors.Is(err, ErrCancelled) || errors.As(err, &ae) || errors.Is(err, ErrValidation) || errors.Is(err, ErrUnauthenticated)
}
