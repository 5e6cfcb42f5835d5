package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"dockeeper/internal/model"
	"dockeeper/internal/router"
	"dockeeper/internal/service"
	"dockeeper/internal/view"
)

// The methods below are shared by the one-shot commands and the shell.

func (a *App) register(ctx context.Context, in service.RegisterInput) error {
	a.router.Show(ctx, string(router.SectionSignup))
	return a.auth.Register(ctx, in)
}

func (a *App) login(ctx context.Context, email, password string) error {
	a.router.Show(ctx, string(router.SectionLogin))
	return a.auth.Login(ctx, email, password)
}

func (a *App) list(ctx context.Context, category string) error {
	l, err := a.showCategory(ctx, category)
	if err != nil {
		return err
	}
	return view.Print(a.env.out, l)
}

func (a *App) upload(ctx context.Context, category, file, title string, fields map[string]string) error {
	l, err := a.showCategory(ctx, category)
	if err != nil {
		return err
	}
	form := view.NewUploadForm(l.Category())
	form.FilePath = file
	form.Title = title
	form.Fields = fields
	if err := a.docs.UploadDocument(ctx, form); err != nil {
		return err
	}
	return view.Print(a.env.out, l)
}

// remove deletes one document. Declining the confirmation is not an error.
func (a *App) remove(ctx context.Context, category, id string) error {
	l, err := a.showCategory(ctx, category)
	if err != nil {
		return err
	}
	err = a.docs.DeleteDocument(ctx, l.Category(), id)
	if errors.Is(err, service.ErrCancelled) {
		fmt.Fprintln(a.env.out, "Nothing deleted.")
		return nil
	}
	if err != nil {
		return err
	}
	return view.Print(a.env.out, l)
}

func (a *App) open(ctx context.Context, category, id string, browser bool) error {
	l, err := a.showCategory(ctx, category)
	if err != nil {
		return err
	}
	it, ok := l.Find(id)
	if !ok {
		return fmt.Errorf("document %q not found in %s", id, l.Category())
	}
	fmt.Fprintln(a.env.out, it.ViewURL)
	if browser && a.env.openURL != nil {
		if err := a.env.openURL(it.ViewURL); err != nil {
			return fmt.Errorf("open browser: %w", err)
		}
	}
	return nil
}

// show activates any section. Category sections also print their list.
func (a *App) show(ctx context.Context, section string) error {
	if model.Category(section).Valid() {
		return a.list(ctx, section)
	}
	if !a.router.Show(ctx, section) {
		return fmt.Errorf("unknown section %q", section)
	}
	fmt.Fprintln(a.env.out, a.router.Active())
	return nil
}

func printCategories(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range model.Categories() {
		fmt.Fprintf(tw, "%s\t%s\n", c, c.Heading())
	}
	return tw.Flush()
}
