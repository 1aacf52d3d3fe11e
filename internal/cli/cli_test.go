package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-resume-generator/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "resumegen", cmd.Use)
	for _, name := range []string{"render", "inspect", "browsers"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRenderCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	render, _, err := cmd.Find([]string{"render"})
	require.NoError(t, err)

	for flag, short := range map[string]string{"input": "i", "template": "t", "output": "o"} {
		f := render.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, short, f.Shorthand)
	}
	assert.NotNil(t, render.Flags().Lookup("no-ai"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "browsers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLoadRecord_RequestBody(t *testing.T) {
	id, rec, err := LoadRecord(filepath.Join("testdata", "request.json"))
	require.NoError(t, err)
	assert.Equal(t, domain.TemplateExecutive, id)
	assert.Equal(t, "Jane Doe", rec.FullName())
	assert.Equal(t, []interface{}{"Go", "PostgreSQL"}, rec["technicalSkills"])
}

func TestLoadRecord_YAMLNormalisedToJSONTypes(t *testing.T) {
	id, rec, err := LoadRecord(filepath.Join("testdata", "record.yaml"))
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.Equal(t, float64(5550100), rec["phone"])
	edu := rec["education"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(2018), edu["endYear"])
}

func TestLoadRecord_Errors(t *testing.T) {
	_, _, err := LoadRecord(filepath.Join("testdata", "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, _, err = LoadRecord(bad)
	assert.Error(t, err)
}

func TestBrowsers_OverrideJSON(t *testing.T) {
	t.Setenv("CHROME_PATH", "/opt/chrome/chrome")

	out, err := execute(t, "--format", "json", "browsers")
	require.NoError(t, err)

	var res BrowsersResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Probes, 3)
	assert.Equal(t, ProbeResult{Source: "override", Path: "/opt/chrome/chrome", Found: true}, res.Probes[0])
	assert.Equal(t, "/opt/chrome/chrome", res.Selected.Path)
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a4.pdf")
	require.NoError(t, os.WriteFile(path, onePagePDF(), 0o644))

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 page(s), 595.28 x 841.89 pt, A4: true")

	out, err = execute(t, "--format", "json", "inspect", path)
	require.NoError(t, err)
	var res InspectResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 1, res.Pages)
	assert.True(t, res.A4)
}

func TestInspect_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.pdf")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))

	_, err := execute(t, "inspect", path)
	assert.Error(t, err)
}

func onePagePDF() []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595.28 841.89] >>",
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}
