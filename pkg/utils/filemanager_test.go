package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "input_archive"),
		filepath.Join(root, "output_archive"),
	)
	fm.Now = func() time.Time { return time.Date(2024, 3, 15, 14, 30, 22, 0, time.UTC) }
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
}

func TestDiscoverInputFiles(t *testing.T) {
	fm := newTestManager(t)
	touch(t, filepath.Join(fm.InputDir, "b.xlsx"))
	touch(t, filepath.Join(fm.InputDir, "a.xlsm"))
	touch(t, filepath.Join(fm.InputDir, "~$b.xlsx"))
	touch(t, filepath.Join(fm.InputDir, "notes.txt"))
	require.NoError(t, os.Mkdir(filepath.Join(fm.InputDir, "dir.xlsx"), 0755))

	files, err := fm.DiscoverInputFiles("*.xlsx", "*.xlsm", "*.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(fm.InputDir, "a.xlsm"),
		filepath.Join(fm.InputDir, "b.xlsx"),
	}, files)
}

func TestArchiveInputFile(t *testing.T) {
	fm := newTestManager(t)
	fm.UseTimestampSubdirs = true
	src := filepath.Join(fm.InputDir, "march.xlsx")
	touch(t, src)

	dst, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.InputArchiveDir, "2024", "03", "15", "march.xlsx"), dst)
	assert.FileExists(t, dst)
	assert.NoFileExists(t, src)
}

func TestArchiveOutputFile(t *testing.T) {
	fm := newTestManager(t)
	src := filepath.Join(fm.OutputDir, "summary.json")
	touch(t, src)

	dst, err := fm.ArchiveOutputFile(src)
	require.NoError(t, err)
	assert.FileExists(t, dst)
	assert.FileExists(t, src, "outputs are copied, not moved")
}

func TestGenerateOutputFileName(t *testing.T) {
	fm := newTestManager(t)

	name := fm.GenerateOutputFileName("{timestamp}_{type}", ".json", map[string]string{"type": "summary"})
	assert.Equal(t, "20240315_143022_summary.json", name)

	name = fm.GenerateOutputFileName("{date}_{uuid}.json", ".json", nil)
	assert.True(t, strings.HasPrefix(name, "20240315_"))
	assert.False(t, strings.HasSuffix(name, ".json.json"))
}

func TestWriteOutputFile(t *testing.T) {
	fm := newTestManager(t)
	path, err := fm.WriteOutputFile("report.json", []byte("{}"))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestWriteErrorLog(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{
		{FileName: "a.xlsx", Severity: "error", Rule: "charts-exceed-sample", Message: "charts met 6 exceeds sample 5", Section: "Falls", RowNumber: 4},
	}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total Entries: 1")
	assert.Contains(t, string(data), "Section:    Falls")
	assert.Contains(t, string(data), "Row Number: 4")
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	path, err := WriteSummaryLog(ProcessingSummary{
		StartTime:  start,
		EndTime:    start.Add(3 * time.Second),
		BatchID:    "b-1",
		TotalFiles: 2,
		Parsed:     1,
		Failed:     1,
		Valid:      1,
		ProcessedFiles: []ProcessedFileInfo{
			{InputFile: "a.xlsx", Format: "snf", Facility: "Sunrise Manor", Period: "2024-03", Score: "560.0 / 700.0 (80.0%)", Valid: true},
		},
		FailedFilesList: []FailedFileInfo{{InputFile: "b.xlsx", ErrorMessage: "not a workbook"}},
	}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "processing_summary_20240315_143003.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Batch ID:   b-1")
	assert.Contains(t, out, "Duration:   3s")
	assert.Contains(t, out, "Facility:     Sunrise Manor")
	assert.Contains(t, out, "Error: not a workbook")
}

func TestCleanOldArchives(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.xlsx")
	fresh := filepath.Join(dir, "fresh.xlsx")
	touch(t, old)
	touch(t, fresh)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	removed, err := CleanOldArchives(dir, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}
