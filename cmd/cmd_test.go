package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/scorecard-import/internal/scorecardtest"
	"github.com/ginjaninja78/scorecard-import/internal/workbook"
)

// workspace is a temp directory with a config file, a facility directory
// and an empty input directory.
type workspace struct {
	root   string
	config string
	input  string
	output string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	ws := workspace{
		root:   root,
		config: filepath.Join(root, "scorecard.yaml"),
		input:  filepath.Join(root, "input"),
		output: filepath.Join(root, "output"),
	}
	require.NoError(t, os.MkdirAll(ws.input, 0755))

	facilities := filepath.Join(root, "facilities.csv")
	require.NoError(t, os.WriteFile(facilities, []byte("Facility ID,Facility Name,Aliases\nF001,Sunrise Manor,\nF002,Oak Ridge,Oak Ridge SNF\n"), 0644))

	cfg := `
paths:
  input_dir: ` + ws.input + `
  output_dir: ` + ws.output + `
  input_archive_dir: ` + filepath.Join(root, "input_archive") + `
  output_archive_dir: ` + filepath.Join(root, "output_archive") + `
facilities:
  file: ` + facilities + `
output:
  name_format: "{type}"
log:
  level: error
`
	require.NoError(t, os.WriteFile(ws.config, []byte(cfg), 0644))
	return ws
}

// run executes the CLI with a clean flag state.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, verbose = "", false
	parseFacility, parseMonth, parseYear, parseValidate = "", 0, 0, false
	dryRun, filePath, overridesFile, fullImport, retention = false, "", "", false, 0
	templateOutput = "scorecard_import_template.xlsx"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Scorecard Import")
	assert.Contains(t, out, "Version:")
}

func TestParseCommand(t *testing.T) {
	ws := newWorkspace(t)
	good := filepath.Join(ws.input, "march.xlsx")
	bad := filepath.Join(ws.input, "broken.xlsx")
	require.NoError(t, os.WriteFile(good, scorecardtest.SNF{Facility: "Sunrise Manor", Month: "March"}.Build(), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))

	out, err := run(t, "parse", "--config", ws.config, "--year", "2024", "--validate", good, bad)
	require.NoError(t, err)

	var report []fileReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report, 2)

	assert.Equal(t, "march.xlsx", report[0].Filename)
	require.NotNil(t, report[0].Scorecard)
	assert.Equal(t, 80.0, report[0].Scorecard.ScorePercentage)
	assert.Equal(t, 2024, *report[0].Scorecard.Year)
	require.NotNil(t, report[0].Validation)
	assert.Equal(t, "F001", report[0].Validation.FacilityID)

	assert.Equal(t, "broken.xlsx", report[1].Filename)
	assert.NotEmpty(t, report[1].Error)
	assert.False(t, report[1].Validation.IsValid)
}

func TestParseCommand_RejectsBadMonth(t *testing.T) {
	ws := newWorkspace(t)
	_, err := run(t, "parse", "--config", ws.config, "--month", "13", "x.xlsx")
	assert.Error(t, err)
}

func TestTemplateCommand(t *testing.T) {
	ws := newWorkspace(t)
	dst := filepath.Join(ws.root, "template.xlsx")

	_, err := run(t, "template", "--config", ws.config, "-o", dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	wb, err := workbook.Read(data)
	require.NoError(t, err)
	facilities := wb.Sheet("Facilities")
	require.NotNil(t, facilities)
	assert.Equal(t, "Oak Ridge", facilities.Cell(1, 0).String())
	assert.Equal(t, "Sunrise Manor", facilities.Cell(2, 0).String())
}

func TestProcessCommand(t *testing.T) {
	ws := newWorkspace(t)
	write := func(name string, data []byte) {
		require.NoError(t, os.WriteFile(filepath.Join(ws.input, name), data, 0644))
	}
	write("a.xlsx", scorecardtest.SNF{Facility: "Sunrise Manor", Month: 3, Year: 2024}.Build())
	write("b.xlsx", []byte("garbage"))
	write("c.xlsx", scorecardtest.SNF{Facility: "Oak Ridge", Month: 3, Year: 2024}.Build())
	write("d.xlsx", scorecardtest.SNF{Facility: "Oak Ridge", Month: 3, Year: 2024}.Build())

	out, err := run(t, "process", "--config", ws.config, "--full")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 4 workbook(s)")
	assert.Contains(t, out, "Total files:   4")
	assert.Contains(t, out, "Duplicates:    2")

	// The clean file is archived; the broken file and the duplicates stay.
	assert.NoFileExists(t, filepath.Join(ws.input, "a.xlsx"))
	assert.FileExists(t, filepath.Join(ws.input, "b.xlsx"))
	assert.FileExists(t, filepath.Join(ws.input, "c.xlsx"))

	summary, err := os.ReadFile(filepath.Join(ws.output, "summary.json"))
	require.NoError(t, err)
	var payload struct {
		Scorecards []struct {
			FacilityID     string `json:"facilityId"`
			SourceFilename string `json:"sourceFilename"`
		} `json:"scorecards"`
	}
	require.NoError(t, json.Unmarshal(summary, &payload))
	require.Len(t, payload.Scorecards, 3)
	assert.Equal(t, "F001", payload.Scorecards[0].FacilityID)

	report, err := os.ReadFile(filepath.Join(ws.output, "report.json"))
	require.NoError(t, err)
	var entries []fileReport
	require.NoError(t, json.Unmarshal(report, &entries))
	assert.Len(t, entries, 4)

	full, err := os.ReadFile(filepath.Join(ws.output, "full.multipart"))
	require.NoError(t, err)
	assert.Contains(t, string(full), `filename="c.xlsx"`)
	assert.Contains(t, string(full), `"c.xlsx":"F002"`, "matched facility ids travel with the files")

	logs, err := filepath.Glob(filepath.Join(ws.output, "processing_summary_*.txt"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestProcessCommand_DryRun(t *testing.T) {
	ws := newWorkspace(t)
	src := filepath.Join(ws.input, "a.xlsx")
	require.NoError(t, os.WriteFile(src, scorecardtest.SNF{Facility: "Sunrise Manor", Month: 3, Year: 2024}.Build(), 0644))

	out, err := run(t, "process", "--config", ws.config, "--dry-run")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "✓ a.xlsx"), out)
	assert.FileExists(t, src)
	assert.NoDirExists(t, ws.output)
}

func TestProcessCommand_Overrides(t *testing.T) {
	ws := newWorkspace(t)
	require.NoError(t, os.WriteFile(filepath.Join(ws.input, "nomonth.xlsx"),
		scorecardtest.SNF{Facility: "Sunrise Manor", Year: 2024}.Build(), 0644))
	overrides := filepath.Join(ws.root, "overrides.yaml")
	require.NoError(t, os.WriteFile(overrides, []byte("overrides:\n  nomonth.xlsx:\n    month: 5\n"), 0644))

	out, err := run(t, "process", "--config", ws.config, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Needs review:  1")

	out, err = run(t, "process", "--config", ws.config, "--dry-run", "--overrides", overrides)
	require.NoError(t, err)
	assert.Contains(t, out, "Needs review:  0")
	assert.Contains(t, out, "2024-05")
}
