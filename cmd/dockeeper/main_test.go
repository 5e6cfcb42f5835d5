package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dockeeper/internal/apitest"
	"dockeeper/internal/model"
	"dockeeper/internal/router"
	"dockeeper/internal/service"
	"dockeeper/internal/session"
)

type harness struct {
	t           *testing.T
	srv         *apitest.Server
	sessionFile string
	opened      []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, k := range []string{"SESSION_BACKEND", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "METRICS_PUSH_URL", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	return &harness{
		t:           t,
		srv:         apitest.New(),
		sessionFile: filepath.Join(t.TempDir(), "session.yaml"),
	}
}

func (h *harness) env(stdin string) (*env, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &env{
		in:        bufio.NewReader(strings.NewReader(stdin)),
		out:       &out,
		errOut:    &errOut,
		transport: h.srv.Transport(),
		openURL: func(u string) error {
			h.opened = append(h.opened, u)
			return nil
		},
	}, &out, &errOut
}

func (h *harness) runWith(stdin string, args ...string) (string, string, error) {
	h.t.Helper()
	e, out, errOut := h.env(stdin)
	cmd := rootCmd(e)
	base := []string{"--api-url", apitest.BaseURL, "--session-file", h.sessionFile, "--log-level", "error"}
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	return h.runWith("", args...)
}

func (h *harness) loginAs(email string) {
	h.t.Helper()
	fs, err := session.NewFileStore(h.sessionFile)
	require.NoError(h.t, err)
	require.NoError(h.t, fs.SetToken(h.srv.IssueToken(email)))
}

func TestCLI_RegisterLoginLogout(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("register", "--name", "Asha", "--email", "asha@example.com", "--password", "pw", "--confirm-password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created! Please log in.")

	out, _, err = h.run("login", "--email", "asha@example.com", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful!")

	fs, err := session.NewFileStore(h.sessionFile)
	require.NoError(t, err)
	assert.True(t, session.HasToken(fs))

	out, _, err = h.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "You have been logged out.")
	assert.False(t, session.HasToken(fs))
}

func TestCLI_RegisterMismatch(t *testing.T) {
	h := newHarness(t)

	_, errOut, err := h.run("register", "--email", "a@example.com", "--password", "a", "--confirm-password", "b")
	assert.ErrorIs(t, err, service.ErrValidation)
	assert.True(t, service.IsQuiet(err))
	assert.Contains(t, errOut, "Passwords do not match")
	assert.Empty(t, h.srv.Requests())
}

func TestCLI_LoginRejected(t *testing.T) {
	h := newHarness(t)

	_, errOut, err := h.run("login", "--email", "nobody@example.com", "--password", "x")
	assert.ErrorIs(t, err, service.ErrLoginFailed)
	assert.Contains(t, errOut, "Invalid credentials")
}

func TestCLI_ListRequiresLogin(t *testing.T) {
	h := newHarness(t)

	_, errOut, err := h.run("list", "bills")
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
	assert.Contains(t, errOut, "You must be logged in")
	assert.Empty(t, h.srv.Requests())
}

func TestCLI_UploadListDelete(t *testing.T) {
	h := newHarness(t)
	h.loginAs("asha@example.com")
	file := filepath.Join(t.TempDir(), "policy.pdf")
	require.NoError(t, os.WriteFile(file, []byte("%PDF-1.4"), 0o644))

	out, _, err := h.run("list", "insurance")
	require.NoError(t, err)
	assert.Contains(t, out, "== Insurance ==")
	assert.Contains(t, out, "(no documents)")

	out, _, err = h.run("upload", "insurance", file, "--title", "Car policy", "--field", "insurer=Acme")
	require.NoError(t, err)
	assert.Contains(t, out, "Document uploaded successfully!")
	assert.Contains(t, out, "Car policy")

	docs := h.srv.Documents(model.CategoryInsurance)
	require.Len(t, docs, 1)

	out, _, err = h.run("delete", "insurance", docs[0].ID, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Document deleted successfully.")
	assert.Contains(t, out, "(no documents)")
	assert.Empty(t, h.srv.Documents(model.CategoryInsurance))
}

func TestCLI_DeleteDeclined(t *testing.T) {
	h := newHarness(t)
	h.loginAs("asha@example.com")
	d := h.srv.AddDocument(model.Document{Title: "Light bill", Category: model.CategoryBills, FilePath: "uploads/l.pdf"})

	out, _, err := h.runWith("n\n", "delete", "bills", d.ID)
	require.NoError(t, err)
	assert.Contains(t, out, service.DeleteQuestion)
	assert.Contains(t, out, "Nothing deleted.")
	assert.Zero(t, h.srv.Count(http.MethodDelete, ""))
	assert.Len(t, h.srv.Documents(model.CategoryBills), 1)
}

func TestCLI_FetchFailureExitsNonZero(t *testing.T) {
	h := newHarness(t)
	h.loginAs("asha@example.com")
	h.srv.Fail(http.MethodGet, "/api/documents/photos", http.StatusInternalServerError, "boom")

	_, errOut, err := h.run("list", "photos")
	assert.ErrorIs(t, err, service.ErrFetchFailed)
	assert.Contains(t, errOut, "Could not fetch documents")
}

func TestCLI_TokenFlagIsNotPersisted(t *testing.T) {
	h := newHarness(t)
	h.srv.AddDocument(model.Document{Title: "Passport scan", Category: model.CategoryPhotos, FilePath: "uploads/p.jpg"})
	tok := h.srv.IssueToken("asha@example.com")

	out, _, err := h.run("--token", tok, "list", "photos")
	require.NoError(t, err)
	assert.Contains(t, out, "Passport scan")
	assert.Contains(t, out, "image")

	_, err = os.Stat(h.sessionFile)
	assert.True(t, os.IsNotExist(err))
}

func TestCLI_Open(t *testing.T) {
	h := newHarness(t)
	h.loginAs("asha@example.com")
	d := h.srv.AddDocument(model.Document{Title: "Degree", Category: model.CategoryCertificates, FilePath: "uploads/degree.pdf"})

	out, _, err := h.run("open", "certificates", d.ID, "--browser")
	require.NoError(t, err)
	assert.Equal(t, apitest.BaseURL+"/uploads/degree.pdf\n", out)
	assert.Equal(t, []string{apitest.BaseURL + "/uploads/degree.pdf"}, h.opened)

	_, _, err = h.run("open", "certificates", "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestCLI_Show(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("show", "signup")
	require.NoError(t, err)
	assert.Equal(t, "signup\n", out)

	_, _, err = h.run("show", "settings")
	assert.ErrorContains(t, err, "unknown section")
}

func TestShowCmd_CompletesEverySection(t *testing.T) {
	e, _, _ := newHarness(t).env("")
	show, _, err := rootCmd(e).Find([]string{"show"})
	require.NoError(t, err)
	assert.Equal(t, []string{"login", "signup", "dashboard", "bills", "certificates", "photos", "warranties", "insurance", "others"}, show.ValidArgs)
}

func TestCLI_CategoriesAndVersion(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("categories")
	require.NoError(t, err)
	for _, c := range model.Categories() {
		assert.Contains(t, out, string(c))
		assert.Contains(t, out, c.Heading())
	}

	out, _, err = h.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestCLI_Shell(t *testing.T) {
	h := newHarness(t)
	h.loginAs("asha@example.com")
	h.srv.AddDocument(model.Document{Title: "Fridge warranty", Category: model.CategoryWarranties, FilePath: "uploads/f.png"})

	script := strings.Join([]string{
		"help",
		"show warranties",
		"list",
		"bogus",
		"logout",
		"list bills",
		"exit",
	}, "\n") + "\n"
	out, errOut, err := h.runWith(script, "shell")
	require.NoError(t, err)

	assert.Contains(t, out, "dashboard> ")
	assert.Contains(t, out, "warranties> ")
	assert.Contains(t, out, "Fridge warranty")
	assert.Contains(t, out, "You have been logged out.")
	assert.Contains(t, errOut, `unknown command "bogus"`)
	assert.Contains(t, errOut, "You must be logged in")
	assert.Equal(t, 2, h.srv.Count(http.MethodGet, "/api/documents/warranties"))
	assert.Zero(t, h.srv.Count(http.MethodGet, "/api/documents/bills"))
}

func TestWatchSession_RoutesToLoginOnExternalLogout(t *testing.T) {
	h := newHarness(t)
	h.loginAs("asha@example.com")
	e, _, _ := h.env("")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a, err := newApp(ctx, e, &options{apiURL: apitest.BaseURL, sessionFile: h.sessionFile, logLevel: "error"})
	require.NoError(t, err)
	require.Equal(t, router.SectionDashboard, a.router.Start(ctx, a.store))

	changes := make(chan bool, 4)
	done := make(chan error, 1)
	go func() { done <- a.watchSession(ctx, func(in bool) { changes <- in }) }()

	// Another process logs out, leaving only its own keys. Keep rewriting
	// until the watcher is registered and notices.
	n := 0
	require.Eventually(t, func() bool {
		n++
		_ = os.WriteFile(h.sessionFile, []byte(fmt.Sprintf("theme: dark-%d\n", n)), 0o600)
		return a.router.Active() == router.SectionLogin
	}, 5*time.Second, 50*time.Millisecond)
	assert.False(t, <-changes)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestTrackedStore_IgnoresOwnWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	fs, err := session.NewFileStore(path)
	require.NoError(t, err)
	s := newTrackedStore(fs)

	_, changed := s.refresh()
	assert.False(t, changed)

	// This process logs in; the file event it causes is not a change.
	require.NoError(t, s.SetToken("mine"))
	_, changed = s.refresh()
	assert.False(t, changed)

	// Another process logs out.
	other, err := session.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, other.ClearToken())
	loggedIn, changed := s.refresh()
	assert.True(t, changed)
	assert.False(t, loggedIn)
	_, changed = s.refresh()
	assert.False(t, changed, "reported once")

	// This process logs in again and out again.
	require.NoError(t, s.SetToken("mine-2"))
	require.NoError(t, s.ClearToken())
	_, changed = s.refresh()
	assert.False(t, changed)

	// Another process logs in.
	require.NoError(t, other.SetToken("theirs"))
	loggedIn, changed = s.refresh()
	assert.True(t, changed)
	assert.True(t, loggedIn)
}

func TestShell_OwnLoginIsNotReportedAsExternal(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("Asha", "asha@example.com", "pw")

	script := "login asha@example.com pw\nlogout\nexit\n"
	out, _, err := h.runWith(script, "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful!")
	assert.Contains(t, out, "You have been logged out.")
	assert.NotContains(t, out, "elsewhere")
}
