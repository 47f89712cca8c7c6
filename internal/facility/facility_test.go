package facility

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := NewDirectory([]Facility{
		{ID: "F002", Name: "Sunrise Manor", Aliases: []string{"Sunrise Manor Nursing & Rehab"}},
		{ID: "F001", Name: "Oak Ridge Healthcare Center"},
		{ID: "F003", Name: "Lakeside Gardens"},
	})
	require.NoError(t, err)
	return d
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "sunrise manor", NormalizeName("  SUNRISE   Manor, LLC "))
	assert.Equal(t, "oak ridge", NormalizeName("Oak Ridge Nursing Center"))
	assert.Equal(t, "cafe rose", NormalizeName("Café Rosé"))
	assert.Equal(t, "pine and elm", NormalizeName("Pine & Elm Rehab"))
	assert.Equal(t, "nursing center", NormalizeName("Nursing Center"), "all-noise names keep their tokens")
	assert.Equal(t, "", NormalizeName("   "))
}

func TestNormalizeName_ConcurrentUse(t *testing.T) {
	names := []string{"Sunrise Manor Nursing Center", "ÖAK RIDGE, LLC", "Lakeside & Gardens"}
	want := make([]string, len(names))
	for i, n := range names {
		want[i] = NormalizeName(n)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 200; k++ {
				i := k % len(names)
				assert.Equal(t, want[i], NormalizeName(names[i]))
			}
		}()
	}
	wg.Wait()
}

func TestDirectory_Match(t *testing.T) {
	d := testDirectory(t)

	m, ok := d.Match("Sunrise Manor")
	require.True(t, ok)
	assert.Equal(t, "F002", m.Facility.ID)
	assert.Equal(t, 1.0, m.Score)

	m, ok = d.Match("Oak Ridge Nursing Center")
	require.True(t, ok)
	assert.Equal(t, "F001", m.Facility.ID)
	assert.Equal(t, 1.0, m.Score)

	m, ok = d.Match("Sunrse Manor")
	require.True(t, ok)
	assert.Equal(t, "F002", m.Facility.ID)
	assert.Greater(t, m.Score, 0.8)

	m, ok = d.Match("Manor Sunrise")
	require.True(t, ok)
	assert.Equal(t, "F002", m.Facility.ID)
	assert.Equal(t, 1.0, m.Score)

	m, ok = d.Match("Completely Different Place")
	require.True(t, ok)
	assert.Less(t, m.Score, 0.6)

	_, ok = d.Match("")
	assert.False(t, ok)
}

func TestDirectory_MatchTieBreaksOnID(t *testing.T) {
	a, err := NewDirectory([]Facility{{ID: "B", Name: "Twin Pines"}, {ID: "A", Name: "Twin Pines"}})
	require.NoError(t, err)
	b, err := NewDirectory([]Facility{{ID: "A", Name: "Twin Pines"}, {ID: "B", Name: "Twin Pines"}})
	require.NoError(t, err)

	ma, _ := a.Match("twin pines")
	mb, _ := b.Match("twin pines")
	assert.Equal(t, "A", ma.Facility.ID)
	assert.Equal(t, ma, mb)
}

func TestNewDirectory_Rejects(t *testing.T) {
	_, err := NewDirectory([]Facility{{ID: "F1", Name: "A"}, {ID: "F1", Name: "B"}})
	assert.Error(t, err)

	_, err = NewDirectory([]Facility{{ID: "F1"}})
	assert.Error(t, err)
}

func TestDirectory_LookupAndNames(t *testing.T) {
	d := testDirectory(t)

	f, ok := d.Lookup("F003")
	require.True(t, ok)
	assert.Equal(t, "Lakeside Gardens", f.Name)

	_, ok = d.Lookup("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{"Lakeside Gardens", "Oak Ridge Healthcare Center", "Sunrise Manor"}, d.Names())
	assert.Equal(t, 3, d.Len())

	var empty *Directory
	assert.Equal(t, 0, empty.Len())
	_, ok = empty.Match("x")
	assert.False(t, ok)
}

func TestLoadCSV(t *testing.T) {
	input := "\n\ufeffFacility ID,Facility Name,Aliases\nF001, Sunrise Manor ,Sunrise SNF;Sunrise Manor Rehab\n,,\nF002,Oak Ridge,\n"

	d, err := LoadCSV(strings.NewReader(input), CSVSettings{})
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	f, ok := d.Lookup("F001")
	require.True(t, ok)
	assert.Equal(t, "Sunrise Manor", f.Name)
	assert.Equal(t, []string{"Sunrise SNF", "Sunrise Manor Rehab"}, f.Aliases)
}

func TestLoadCSV_PipeAndLatin1(t *testing.T) {
	// "Café" in windows-1252.
	input := "id|name\nF9|Caf\xe9 Terrace\n"

	d, err := LoadCSV(strings.NewReader(input), CSVSettings{Delimiter: "pipe", Encoding: "windows-1252"})
	require.NoError(t, err)

	f, ok := d.Lookup("F9")
	require.True(t, ok)
	assert.Equal(t, "Café Terrace", f.Name)
}

func TestLoadCSV_MissingColumns(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("code,label\n1,x\n"), CSVSettings{})
	assert.Error(t, err)

	_, err = LoadCSV(strings.NewReader("\n\n"), CSVSettings{})
	assert.Error(t, err)
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facilities.yaml")
	doc := `facilities:
  - id: F001
    name: Sunrise Manor
    aliases: [Sunrise Manor Nursing Center]
  - id: F002
    name: Oak Ridge
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	d, err := LoadFile(path, CSVSettings{})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "facilities.json"), CSVSettings{})
	assert.Error(t, err)
}
