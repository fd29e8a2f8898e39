package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicshelf/internal/catalog"
	"comicshelf/internal/storage"
)

func run(t *testing.T, m *catalog.Manager, script ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(script, "\n") + "\n")
	require.NoError(t, NewSession(m, in, &out).Run(context.Background()))
	return out.String()
}

func TestSessionScenario(t *testing.T) {
	m := catalog.New()
	out := run(t, m,
		"1", "V for Vendetta", "Moore", "1982",
		"1", "Watchmen", "Moore", "1986",
		"2",
		"3", "watchmen",
		"2",
		"4",
	)

	assert.Contains(t, out, "Comic added: Title: V for Vendetta, Author: Moore, Publication year: 1982")
	assert.Contains(t, out, "Comic removed: Title: Watchmen, Author: Moore, Publication year: 1986")

	lists := strings.Split(out, "Comics:\n")
	require.Len(t, lists, 3)
	assert.True(t, strings.HasPrefix(lists[1],
		"Title: V for Vendetta, Author: Moore, Publication year: 1982\nTitle: Watchmen, Author: Moore, Publication year: 1986\n"))
	assert.True(t, strings.HasPrefix(lists[2], "Title: V for Vendetta, Author: Moore, Publication year: 1982\n\nMenu:"))
	assert.True(t, strings.HasSuffix(out, "Goodbye.\n"))
	assert.Equal(t, 1, m.Len())
}

func TestSessionEmptyList(t *testing.T) {
	out := run(t, catalog.New(), "2", "4")
	assert.Contains(t, out, "The catalog is empty.")
	assert.NotContains(t, out, "Comics:")
}

func TestSessionRejectsMalformedMenuChoice(t *testing.T) {
	out := run(t, catalog.New(), "abc", "", "2", "4")
	assert.Equal(t, 2, strings.Count(out, "Please enter a valid number."))
	assert.Contains(t, out, "The catalog is empty.")
}

func TestSessionInvalidOption(t *testing.T) {
	out := run(t, catalog.New(), "7", "0", "-1", "4")
	assert.Equal(t, 3, strings.Count(out, "Invalid option. Please try again."))
}

func TestSessionRejectsMalformedYear(t *testing.T) {
	m := catalog.New()
	out := run(t, m, "1", "Watchmen", "Moore", "nineteen", "2", "4")
	assert.Contains(t, out, "Error: publication year must be a whole number.")
	assert.Contains(t, out, "The catalog is empty.")
	assert.Equal(t, 0, m.Len())
}

func TestSessionReportsValidationErrors(t *testing.T) {
	m := catalog.New()
	out := run(t, m,
		"1", "   ", "Moore", "1986",
		"1", "Watchmen", "", "1986",
		"1", "Watchmen", "Moore", "-4",
		"4",
	)
	assert.Contains(t, out, "Error: title must not be empty")
	assert.Contains(t, out, "Error: author must not be empty")
	assert.Contains(t, out, "Error: publication year must not be negative")
	assert.Equal(t, 0, m.Len())
}

func TestSessionRemoveNotFound(t *testing.T) {
	out := run(t, catalog.New(), "3", "Watchmen", "4")
	assert.Contains(t, out, "Comic not found.")
}

func TestSessionEndOfInputExits(t *testing.T) {
	var out bytes.Buffer
	err := NewSession(catalog.New(), strings.NewReader("1\nWatchmen"), &out).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out.String(), "Goodbye.\n"))
}

func TestSessionStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := NewSession(catalog.New(), strings.NewReader("2\n"), &out).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSessionHandlesCRLF(t *testing.T) {
	m := catalog.New()
	var out bytes.Buffer
	in := strings.NewReader("1\r\nMaus\r\nSpiegelman\r\n1980\r\n4\r\n")
	require.NoError(t, NewSession(m, in, &out).Run(context.Background()))
	require.Equal(t, 1, m.Len())
	assert.Equal(t, "Maus", m.List()[0].Title())
}

func TestSessionAcceptsVeryLongLines(t *testing.T) {
	m := catalog.New()
	title := strings.Repeat("x", 70*1024)
	out := run(t, m, "1", title, "Moore", "1986", "1", strings.Repeat("y", 2<<20), "Moore", "1987", "2", "4")
	require.Equal(t, 2, m.Len())
	assert.Equal(t, title, m.List()[0].Title())
	assert.Contains(t, out, "Comics:\n")
	assert.True(t, strings.HasSuffix(out, "Goodbye.\n"))
}

func TestStorageReporterMessages(t *testing.T) {
	var buf bytes.Buffer
	r := StorageReporter(&buf)

	r(catalog.OpLoad, &storage.CorruptError{Path: "/x/comics.json", Err: errors.New("bad")})
	r(catalog.OpLoad, &storage.IOError{Op: "read", Path: "/x/comics.json", Err: errors.New("denied")})
	r(catalog.OpSave, &storage.IOError{Op: "write", Path: "/x/comics.json", Err: errors.New("disk full")})

	out := buf.String()
	assert.Contains(t, out, "the file will be overwritten on the next change")
	assert.Equal(t, 2, strings.Count(out, "Error loading catalog:"))
	assert.Contains(t, out, "Error saving catalog: write /x/comics.json: disk full")
}
