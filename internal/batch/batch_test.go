package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plat-tools/platmaster/internal/export"
	"github.com/plat-tools/platmaster/internal/pipeline"
	"github.com/plat-tools/platmaster/internal/survey"
)

// stubProcessor fails for paths in failOn and succeeds otherwise.
type stubProcessor struct {
	failOn map[string]bool
	seen   []string
}

func (sp *stubProcessor) ProcessDocument(
	_ context.Context, pdfPath string, _ []int,
) (*pipeline.DocumentResult, error) {
	sp.seen = append(sp.seen, pdfPath)
	if sp.failOn[filepath.Base(pdfPath)] {
		return nil, errors.New("rasterization failed")
	}
	rec := survey.DirectionalSurvey{
		UWI:          "42-123-45678",
		SurveyPoints: []survey.SurveyPoint{{MD: 0}},
	}
	return &pipeline.DocumentResult{Source: pdfPath, TotalPages: 1, Record: rec}, nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))
}

func TestDiscoverPDFFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.pdf"))
	touch(t, filepath.Join(dir, "b.PDF"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o750))
	touch(t, filepath.Join(sub, "c.pdf"))

	flat, err := discoverPDFFiles([]string{dir}, false, nil, nil)
	require.NoError(t, err)
	assert.Len(t, flat, 2, "non-recursive skips subdirectories")

	deep, err := discoverPDFFiles([]string{dir}, true, nil, nil)
	require.NoError(t, err)
	assert.Len(t, deep, 3)

	excluded, err := discoverPDFFiles([]string{dir}, true, nil, []string{"b.*"})
	require.NoError(t, err)
	assert.Len(t, excluded, 2)
}

func TestRunNoFiles(t *testing.T) {
	_, err := Run(context.Background(), &stubProcessor{}, []string{t.TempDir()}, Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no PDF files found")
}

func TestRunWritesExports(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "well1.pdf"))
	touch(t, filepath.Join(dir, "well2.pdf"))
	outDir := filepath.Join(t.TempDir(), "out")

	sp := &stubProcessor{}
	result, err := Run(context.Background(), sp, []string{dir}, Config{
		OutputDir: outDir,
		Format:    export.FormatJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Zero(t, result.Failed)

	for _, stem := range []string{"well1", "well2"} {
		_, statErr := os.Stat(filepath.Join(outDir, stem+".json"))
		assert.NoError(t, statErr)
	}
}

func TestRunContinueOnError(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "bad.pdf"))
	touch(t, filepath.Join(dir, "good.pdf"))

	sp := &stubProcessor{failOn: map[string]bool{"bad.pdf": true}}
	result, err := Run(context.Background(), sp, []string{dir}, Config{ContinueOnError: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, sp.seen, 2)
}

func TestRunStopsOnErrorByDefault(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "bad.pdf"))
	touch(t, filepath.Join(dir, "good.pdf"))

	sp := &stubProcessor{failOn: map[string]bool{"bad.pdf": true}}
	result, err := Run(context.Background(), sp, []string{dir}, Config{})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, sp.seen, 1, "stops at the first failure")
}

func TestRunDropDirDelivery(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "well1.pdf"))
	dropDir := filepath.Join(t.TempDir(), "gis-watch")

	_, err := Run(context.Background(), &stubProcessor{}, []string{dir}, Config{DropDir: dropDir})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dropDir, "well1.csv"))
	assert.NoError(t, statErr)
}

func TestRunContextCancelled(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "well1.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, &stubProcessor{}, []string{dir}, Config{})
	require.ErrorIs(t, err, context.Canceled)
}
