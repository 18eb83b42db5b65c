package schools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	key  string
	body string
	err  error
}

func (f fakeFetcher) Fetch(context.Context, string) (string, []byte, error) {
	return f.key, []byte(f.body), f.err
}

type fakeRows [][]string

func (f fakeRows) Rows(context.Context, string) ([][]string, error) { return f, nil }

const yamlDoc = `schools:
  - name: Stanford University
    alias: stanford
  - name: Carnegie Mellon University
    alias: cmu
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadYAMLFile(t *testing.T) {
	p := writeFile(t, "schools.yaml", yamlDoc)
	d, err := Load(context.Background(), p, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	d, err = Load(context.Background(), "file://"+p, quietLogger())
	require.NoError(t, err)
	name, err := d.Name("cmu")
	require.NoError(t, err)
	assert.Equal(t, "Carnegie Mellon University", name)
}

func TestLoadBareYAMLList(t *testing.T) {
	p := writeFile(t, "schools.yml", "- name: Yale University\n  alias: yale\n")
	d, err := Load(context.Background(), p, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())
}

func TestLoadCSVFile(t *testing.T) {
	p := writeFile(t, "schools.csv", "name,alias\n# comment\nYale University,yale\n\"Texas A&M University, College Station\",tamu\nBroken Row\n")
	d, err := Load(context.Background(), p, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Len(t, d.Skipped(), 1)
	alias, err := d.Alias("Texas A&M University, College Station")
	require.NoError(t, err)
	assert.Equal(t, "tamu", alias)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	_, err := Load(ctx, filepath.Join(t.TempDir(), "nope.yaml"), quietLogger())
	assert.Error(t, err)

	_, err = Load(ctx, writeFile(t, "schools.json", "{}"), quietLogger())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(ctx, writeFile(t, "schools.yaml", "schools: [\n"), quietLogger())
	assert.Error(t, err)

	_, err = Load(ctx, writeFile(t, "empty.csv", "name,alias\n"), quietLogger())
	assert.Error(t, err)
}

func TestLoaderRemoteSources(t *testing.T) {
	ctx := context.Background()

	l := &Loader{S3: fakeFetcher{key: "cfg/schools.yaml", body: yamlDoc}, Logger: quietLogger()}
	d, err := l.Load(ctx, "s3://bucket/cfg/schools.yaml")
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	l = &Loader{S3: fakeFetcher{err: errors.New("denied")}, Logger: quietLogger()}
	_, err = l.Load(ctx, "s3://bucket/cfg/schools.yaml")
	assert.Error(t, err)

	l = &Loader{Sheets: fakeRows{{"Name", "Alias"}, {"Yale University", "yale"}}, Logger: quietLogger()}
	d, err = l.Load(ctx, "sheets://abc/Aliases")
	require.NoError(t, err)
	name, err := d.Name("yale")
	require.NoError(t, err)
	assert.Equal(t, "Yale University", name)
}
