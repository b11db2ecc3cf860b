package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docr/internal/config"
	"github.com/sells-group/docr/internal/docr"
	"github.com/sells-group/docr/internal/docr/docrtest"
)

// runCLI executes the root command against svc from an empty working
// directory and returns stdout, stderr and the exit code.
func runCLI(t *testing.T, svc docr.Service, args ...string) (string, string, int) {
	t.Helper()
	t.Chdir(t.TempDir())

	orig := newService
	newService = func(config.EngineConfig) (docr.Service, error) { return svc, nil }

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		newService = orig
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	})

	code := execute()
	return stdout.String(), stderr.String(), code
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// writeImage writes a small white PNG and returns its path.
func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.White)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"languages", "batch", "script", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "docr FILENAME", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommand_LangFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("lang")
	require.NotNil(t, flag)
	assert.Equal(t, "l", flag.Shorthand)
	assert.Equal(t, "en", flag.DefValue)
}

func TestRecognizeFile(t *testing.T) {
	path := writeImage(t, t.TempDir(), "oz.png")
	svc := docrtest.NewService(docrtest.LTR("en-US"))
	svc.DefaultLines = []string{
		"You are welcome, most noble Sorceress, to the land of the ",
		"Munchkins. ",
	}

	stdout, stderr, code := runCLI(t, svc, path)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "You are welcome, most noble Sorceress, to the land of the\nMunchkins.\n", stdout)
	assert.Empty(t, stderr)
}

func TestRecognizeFile_RightToLeft(t *testing.T) {
	path := writeImage(t, t.TempDir(), "ar.png")
	svc := docrtest.NewService(docrtest.LTR("en"), docrtest.RTL("ar-EG"))
	svc.DefaultLines = []string{"هو الكون"}

	stdout, _, code := runCLI(t, svc, "-l", "ar", path)
	assert.Equal(t, 0, code)
	assert.Equal(t, "الكون هو \n", stdout)
}

func TestRecognizeFile_UnsupportedLanguage(t *testing.T) {
	path := writeImage(t, t.TempDir(), "oz.png")
	svc := docrtest.NewService(docrtest.LTR("en"))

	stdout, stderr, code := runCLI(t, svc, "--lang", "aws", path)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "Error: Language 'aws' is not supported by the OCR engine\n", stderr)
}

func TestRecognizeFile_Missing(t *testing.T) {
	svc := docrtest.NewService(docrtest.LTR("en"))

	_, stderr, code := runCLI(t, svc, "/no/such/image.png")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Error: Failed to open image file: /no/such/image.png\n", stderr)
	assert.Zero(t, svc.Enumerations())
}

func TestRecognizeFile_EngineFailure(t *testing.T) {
	path := writeImage(t, t.TempDir(), "oz.png")
	svc := docrtest.NewService(docrtest.LTR("en"))
	svc.RecognizeErr = docr.NewRuntimeError("The parameter is incorrect.", 87)

	_, stderr, code := runCLI(t, svc, path)
	assert.Equal(t, 1, code)
	assert.Equal(t, "Engine error: The parameter is incorrect. Code: 87.\n", stderr)
}

func TestRecognizeFile_NoArgs(t *testing.T) {
	_, stderr, code := runCLI(t, docrtest.NewService())
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)
}

func TestErrorMessage_NonRecognitionError(t *testing.T) {
	assert.Equal(t, assert.AnError.Error(), errorMessage(assert.AnError))
	assert.Equal(t, "Error: bad input", errorMessage(fmt.Errorf("wrapped: %w", docr.NewOperationError("bad input"))))
}
