package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naksh1414/Kata-library-Management-System/internal/archive"
	"github.com/naksh1414/Kata-library-Management-System/internal/library"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("LIBRARY_LOGGING_LEVEL", "error")
}

func newServer(t *testing.T) (*library.Library, string) {
	t.Helper()
	lib, err := library.New()
	require.NoError(t, err)
	ts := httptest.NewServer(library.NewHandler(lib).Routes())
	t.Cleanup(ts.Close)
	return lib, ts.URL
}

func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T, lib *library.Library) {
	t.Helper()
	ctx := context.Background()
	_, err := lib.AddBookWithCategory(ctx, "go-1", "The Go Programming Language", "Donovan", 2015, "Programming")
	require.NoError(t, err)
	_, err = lib.Borrow(ctx, "go-1", "ann")
	require.NoError(t, err)
}

func TestExportImportThroughFile(t *testing.T) {
	isolate(t)
	src, srcURL := newServer(t)
	dst, dstURL := newServer(t)
	seed(t, src)

	path := filepath.Join(t.TempDir(), "snapshot.json")
	_, err := execute(t, nil, "export", "--addr", srcURL, "--output", path)
	require.NoError(t, err)

	_, err = execute(t, nil, "import", "--addr", dstURL, "--input", path)
	require.NoError(t, err)

	book, err := dst.GetBook(context.Background(), "go-1")
	require.NoError(t, err)
	assert.False(t, book.Available)
	assert.Equal(t, []string{"Programming"}, dst.Categories(context.Background()))
}

func TestExportStdoutImportStdin(t *testing.T) {
	isolate(t)
	src, srcURL := newServer(t)
	dst, dstURL := newServer(t)
	seed(t, src)

	out, err := execute(t, nil, "export", "--addr", srcURL)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	_, err = execute(t, strings.NewReader(out), "import", "--addr", dstURL)
	require.NoError(t, err)
	assert.Len(t, dst.History(context.Background(), "ann"), 1)
}

func TestExportImportThroughArchive(t *testing.T) {
	isolate(t)
	t.Setenv("LIBRARY_ARCHIVE_FILE_DIR", t.TempDir())
	src, srcURL := newServer(t)
	dst, dstURL := newServer(t)
	seed(t, src)

	out, err := execute(t, nil, "export", "--addr", srcURL, "--archive", archive.DriverFile)
	require.NoError(t, err)
	name := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(name, "library-"))

	_, err = execute(t, nil, "import", "--addr", dstURL, "--archive", archive.DriverFile, "--name", name)
	require.NoError(t, err)

	_, err = dst.GetBook(context.Background(), "go-1")
	assert.NoError(t, err)
}

func TestImportArchiveRequiresName(t *testing.T) {
	isolate(t)
	_, url := newServer(t)

	_, err := execute(t, nil, "import", "--addr", url, "--archive", archive.DriverFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name")
}

func TestImportRejectsMalformedSnapshot(t *testing.T) {
	isolate(t)
	_, url := newServer(t)

	_, err := execute(t, strings.NewReader("{not json"), "import", "--addr", url)
	assert.Error(t, err)
}

func TestInvalidConfigFailsCommand(t *testing.T) {
	isolate(t)
	t.Setenv("LIBRARY_ARCHIVE_DRIVER", "ftp")
	_, url := newServer(t)

	_, err := execute(t, nil, "export", "--addr", url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive.driver")
}

func TestChaosCommand(t *testing.T) {
	isolate(t)
	lib, url := newServer(t)

	_, err := execute(t, nil, "chaos", "--addr", url,
		"--concurrency", "8", "--rounds", "4", "--books", "2",
		"--duration", "20ms", "--sample-interval", "5ms")
	require.NoError(t, err)
	assert.Empty(t, lib.Available(context.Background()))
}

func TestRestoreAndSave(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	arch, err := archive.NewFile(t.TempDir())
	require.NoError(t, err)

	lib, err := library.New()
	require.NoError(t, err)
	require.NoError(t, restore(ctx, lib, arch, "library", logger), "missing snapshot is not an error")

	seed(t, lib)
	require.NoError(t, save(ctx, lib, arch, "library", logger))

	restored, err := library.New()
	require.NoError(t, err)
	require.NoError(t, restore(ctx, restored, arch, "library", logger))
	book, err := restored.GetBook(ctx, "go-1")
	require.NoError(t, err)
	assert.False(t, book.Available)
}

func TestRestoreRejectsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	arch, err := archive.NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library.json"), []byte("nope"), 0o600))

	lib, err := library.New()
	require.NoError(t, err)
	assert.Error(t, restore(ctx, lib, arch, "library", logger))
}
