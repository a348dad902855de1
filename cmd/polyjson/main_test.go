package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/polyjson/i18n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Cleanup(func() { i18n.SetLanguage("en") })
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestDecode_FilesInArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `{"identifier":"a","type":"instruction","title":"A"}`)
	b := writeFile(t, dir, "b.yaml", "type: active\nidentifier: b\nduration: 10\n---\ntype: survey\nidentifier: c\n")
	c := writeFile(t, dir, "c.json", `{"type":"completion","identifier":"d","completedAt":"2025-03-01T10:00:00+09:00"}`)

	code, out, errOut := runCLI(t, "", "decode", "-j", "2", a, b, c)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, strings.Join([]string{
		`{"type":"instruction","identifier":"a","title":"A"}`,
		`{"type":"active","identifier":"b","duration":10}`,
		`{"type":"survey","identifier":"c"}`,
		`{"type":"completion","identifier":"d","completedAt":"2025-03-01T01:00:00Z"}`,
	}, "\n")+"\n", out)
}

func TestDecode_Stdin(t *testing.T) {
	code, out, errOut := runCLI(t, `{"type":"section","identifier":"s","steps":[]}`, "decode")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, `{"type":"section","identifier":"s","steps":[]}`+"\n", out)
}

func TestDecode_ConfigField(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "polyjson.yaml", "field: kind\nlanguage: ja\nlog:\n  level: error\n")

	code, out, _ := runCLI(t, `{"kind":"form","identifier":"f","choices":[]}`, "decode", "-config", cfg)
	require.Equal(t, 0, code)
	assert.Equal(t, `{"kind":"form","identifier":"f","choices":[]}`+"\n", out)

	code, _, errOut := runCLI(t, `{"type":"form"}`, "decode", "-config", cfg)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "discriminator_missing")
	assert.Contains(t, errOut, "フィールド kind")
}

func TestDecode_Errors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `{"type":"instruction","identifier":"ok"}`)
	dup := writeFile(t, dir, "dup.json", `{"type":"instruction","identifier":"x","identifier":"y"}`)

	code, out, errOut := runCLI(t, "", "decode", good, dup)
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "dup.json")
	assert.Contains(t, errOut, "duplicate_key at /identifier")

	code, _, errOut = runCLI(t, "", "decode", filepath.Join(dir, "missing.json"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "missing.json")

	code, _, _ = runCLI(t, "", "decode", "-format", "toml", good)
	assert.Equal(t, 2, code)
	code, _, _ = runCLI(t, "", "decode", "-j", "0", good)
	assert.Equal(t, 2, code)
	code, _, _ = runCLI(t, "", "decode", "-bogus")
	assert.Equal(t, 2, code)
}

func TestDecode_ConfigLimitsApplyToYAML(t *testing.T) {
	dir := t.TempDir()
	deep := writeFile(t, dir, "deep.yaml", "decode:\n  maxDepth: 1\n")
	small := writeFile(t, dir, "small.yaml", "decode:\n  maxBytes: 10\n")
	js := writeFile(t, dir, "s.json", `{"type":"section","identifier":"s","steps":[]}`)
	ym := writeFile(t, dir, "s.yaml", "type: section\nidentifier: s\nsteps: []\n")

	for _, in := range []string{js, ym} {
		code, out, errOut := runCLI(t, "", "decode", "-config", deep, in)
		assert.Equal(t, 1, code, in)
		assert.Empty(t, out)
		assert.Contains(t, errOut, "parse_error at /steps: max depth exceeded", in)
	}

	code, out, errOut := runCLI(t, "", "decode", "-config", small, ym)
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "truncated at /: max bytes exceeded")
}

func TestSchema(t *testing.T) {
	code, out, errOut := runCLI(t, "", "schema", "-field", "kind")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `"title": "study.Step"`)
	assert.Contains(t, out, `"propertyName": "kind"`)
	assert.Contains(t, out, `"x-default": "study.UIStep"`)
}

func TestLabels(t *testing.T) {
	code, out, errOut := runCLI(t, "", "labels")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "study.Step (field \"type\")\n"+
		"  instruction\tstudy.InstructionStep\n"+
		"  form\tstudy.FormStep\n"+
		"  active\tstudy.ActiveStep\n"+
		"  completion\tstudy.CompletionStep\n"+
		"  section\tstudy.SectionStep\n"+
		"  *\tstudy.UIStep\n"+
		"study.ImageTheme (field \"type\")\n"+
		"  fetchable\tstudy.FetchableImageTheme\n"+
		"  animation\tstudy.AnimationImageTheme\n", out)
}

func TestUsage(t *testing.T) {
	code, _, errOut := runCLI(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Usage:")

	code, _, _ = runCLI(t, "", "frobnicate")
	assert.Equal(t, 2, code)

	code, out, _ := runCLI(t, "", "help")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "polyjson decode")
}
