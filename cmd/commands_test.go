package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docr/internal/docr"
	"github.com/sells-group/docr/internal/docr/docrtest"
)

func TestLanguages_Text(t *testing.T) {
	svc := docrtest.NewService(docrtest.LTR("en-US"), docrtest.RTL("ar-SA"))

	stdout, stderr, code := runCLI(t, svc, "languages")
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "en-us  ltr\nar-sa  rtl\n", stdout)
}

func TestLanguages_JSON(t *testing.T) {
	svc := docrtest.NewService(docrtest.LTR("en-US"), docrtest.RTL("ar-SA"))

	stdout, _, code := runCLI(t, svc, "languages", "--format", "json")
	assert.Equal(t, 0, code)
	assert.JSONEq(t, `[{"tag":"en-us","direction":"ltr"},{"tag":"ar-sa","direction":"rtl"}]`, stdout)
}

func TestLanguages_YAML(t *testing.T) {
	svc := docrtest.NewService(docrtest.RTL("he"))

	stdout, _, code := runCLI(t, svc, "languages", "--format", "yaml")
	assert.Equal(t, 0, code)
	assert.YAMLEq(t, "- tag: he\n  direction: rtl\n", stdout)
}

func TestLanguages_UnknownFormat(t *testing.T) {
	_, stderr, code := runCLI(t, docrtest.NewService(docrtest.LTR("en")), "languages", "--format", "xml")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `unknown format "xml"`)
}

func TestLanguages_EngineFailure(t *testing.T) {
	svc := docrtest.NewService()
	svc.LanguagesErr = docr.NewRuntimeError("Class not registered", 0x80040154)

	_, stderr, code := runCLI(t, svc, "languages")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Engine error: Class not registered Code: 2147746132.\n", stderr)
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag, "batch command should have --concurrency flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	a := writeImage(t, dir, "a.png")
	b := writeImage(t, dir, "b.png")
	svc := docrtest.NewService(docrtest.LTR("en"))
	svc.DefaultLines = []string{"page"}

	stdout, stderr, code := runCLI(t, svc, "batch", "--concurrency", "2", a, b)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "==> "+a+" <==\npage\n==> "+b+" <==\npage\n", stdout)
	assert.Equal(t, 2, svc.Opened())
	assert.Equal(t, 2, svc.Closed())
}

func TestBatch_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	a := writeImage(t, dir, "a.png")
	missing := filepath.Join(dir, "missing.png")
	svc := docrtest.NewService(docrtest.LTR("en"))
	svc.DefaultLines = []string{"page"}

	stdout, stderr, code := runCLI(t, svc, "batch", missing, a)
	assert.Equal(t, 1, code)
	assert.Equal(t, "==> "+missing+" <==\n==> "+a+" <==\npage\n", stdout)
	assert.True(t, strings.HasPrefix(stderr, missing+": Error: Failed to open image file: "+missing+"\n"), stderr)
	assert.Contains(t, stderr, "batch: 1 of 2 files failed")
}

func TestBatch_ConcurrencyFlagOverridesConfig(t *testing.T) {
	t.Setenv("DOCR_BATCH_CONCURRENCY", "0")
	a := writeImage(t, t.TempDir(), "a.png")
	svc := docrtest.NewService(docrtest.LTR("en"))
	svc.DefaultLines = []string{"page"}

	_, stderr, code := runCLI(t, svc, "batch", a)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "batch.concurrency must be positive")

	stdout, stderr, code := runCLI(t, svc, "batch", "--concurrency", "2", a)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "==> "+a+" <==\npage\n", stdout)
}

func TestBatch_NoFiles(t *testing.T) {
	_, _, code := runCLI(t, docrtest.NewService(docrtest.LTR("en")), "batch")
	assert.Equal(t, 1, code)
}

func TestScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "ocr.js")
	img := writeImage(t, t.TempDir(), "oz.png")
	src := `
		const engine = new DocrEngine('en');
		print(engine.toString());
		engine.recognizeImageFileAsync(` + "'" + img + "'" + `);
	`
	require.NoError(t, os.WriteFile(script, []byte(src), 0o644))

	svc := docrtest.NewService(docrtest.LTR("en-GB"))
	svc.DefaultLines = []string{"Hello  World "}

	stdout, stderr, code := runCLI(t, svc, "script", script)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "DocrEngine(language='en')\nHello  World\n\n", stdout)
}

func TestScript_Exception(t *testing.T) {
	script := filepath.Join(t.TempDir(), "bad.js")
	require.NoError(t, os.WriteFile(script, []byte(`new DocrEngine('tlh')`), 0o644))

	_, stderr, code := runCLI(t, docrtest.NewService(docrtest.LTR("en")), "script", script)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ValueError: Error: Language 'tlh' is not supported by the OCR engine")
}

func TestScript_MissingFile(t *testing.T) {
	_, stderr, code := runCLI(t, docrtest.NewService(docrtest.LTR("en")), "script", "/no/such.js")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "script: read /no/such.js")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestServe_PortFlagIsValidated(t *testing.T) {
	t.Setenv("DOCR_SERVER_PORT", "0")

	_, stderr, code := runCLI(t, docrtest.NewService(docrtest.LTR("en")), "serve", "--port", "70000")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "server.port 70000 is out of range")
}
