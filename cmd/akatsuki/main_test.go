package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/akatsuki/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.OsExiter = func(int) {}
	cli.ErrWriter = io.Discard
}

func runConfig(t *testing.T, config string, args ...string) (string, error) {
	app := newApp()
	buf := new(bytes.Buffer)
	app.Writer = buf
	app.ErrWriter = io.Discard

	err := app.Run(append([]string{"akatsuki", "--config", config}, args...))

	return buf.String(), err
}

func run(t *testing.T, args ...string) (string, error) {
	return runConfig(t, filepath.Join(t.TempDir(), "missing.yaml"), args...)
}

func exitCode(t *testing.T, err error) int {
	coder, ok := err.(cli.ExitCoder)
	require.True(t, ok, "%v", err)
	return coder.ExitCode()
}

func writeCover(t *testing.T, file string, w, h int) {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		m.SetNRGBA(i%w, i/w, color.NRGBA{R: uint8(i), G: uint8(i * 3), B: uint8(i * 7), A: 255})
	}
	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, raster.Encode(f, m, raster.PNG))
}

func TestModeFlags(t *testing.T) {
	tables := []struct {
		name string
		args []string
	}{
		{"none", nil},
		{"two modes", []string{"--info", "--extract", "-i", "x.png"}},
		{"inject without output", []string{"--inject", "-i", "x.png", "-s", "y"}},
		{"info without image", []string{"--info"}},
		{"extract without image", []string{"--extract"}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := run(t, table.args...)
			require.Error(t, err)
			assert.Equal(t, 1, exitCode(t, err))
		})
	}
}

func TestMissingArguments(t *testing.T) {
	for _, args := range [][]string{
		{"inject", "a.png", "b"},
		{"extract"},
		{"info"},
		{"scan"},
		{"plane", "a.png"},
	} {
		_, err := run(t, args...)
		require.Error(t, err, "%v", args)
		assert.Equal(t, 1, exitCode(t, err))
	}
}

func TestInjectInfoExtract(t *testing.T) {
	dir := t.TempDir()
	cover := filepath.Join(dir, "cover.png")
	secret := filepath.Join(dir, "a.txt")
	output := filepath.Join(dir, "output.png")
	writeCover(t, cover, 200, 1)
	require.NoError(t, os.WriteFile(secret, bytes.Repeat([]byte{'z'}, 50), 0o644))

	_, err := run(t, "--inject", "-i", cover, "-s", secret, "-o", output)
	require.NoError(t, err)

	out, err := run(t, "--info", "-i", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Capacity: 72 bytes (0 KiB)")
	assert.Contains(t, out, "File:     a.txt")
	assert.Contains(t, out, "Size:     50 bytes (0 KiB)")

	extracted := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(extracted, 0o755))

	_, err = run(t, "extract", output, extracted)
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(extracted, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{'z'}, 50), got)
}

func TestInjectTooLarge(t *testing.T) {
	dir := t.TempDir()
	cover := filepath.Join(dir, "cover.png")
	secret := filepath.Join(dir, "a.txt")
	output := filepath.Join(dir, "output.png")
	writeCover(t, cover, 10, 10)
	require.NoError(t, os.WriteFile(secret, []byte("x"), 0o644))

	_, err := run(t, "inject", cover, secret, output)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, err.Error(), "Maximum file size is -28 bytes")

	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestInfoSmallImage(t *testing.T) {
	dir := t.TempDir()
	cover := filepath.Join(dir, "cover.png")
	writeCover(t, cover, 10, 10)

	out, err := run(t, "info", cover)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(t, err))
	assert.Contains(t, out, "Capacity: -28 bytes")
}

func TestCatalogCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "catalog.db")
	cover := filepath.Join(dir, "cover.png")
	secret := filepath.Join(dir, "a.txt")
	output := filepath.Join(dir, "output.png")
	writeCover(t, cover, 20, 20)
	require.NoError(t, os.WriteFile(secret, []byte("hello"), 0o644))

	_, err := run(t, "catalog")
	require.Error(t, err)

	_, err = run(t, "--db", db, "inject", cover, secret, output)
	require.NoError(t, err)

	out, err := run(t, "--db", db, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, output)
}

func TestCompressFlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "akatsuki.yaml")
	cover := filepath.Join(dir, "cover.png")
	secret := filepath.Join(dir, "a.txt")
	writeCover(t, cover, 32, 32)
	require.NoError(t, os.WriteFile(config, []byte("compress: true\n"), 0o644))
	require.NoError(t, os.WriteFile(secret, bytes.Repeat([]byte("abc"), 100), 0o644))

	tables := []struct {
		args []string
		want string
	}{
		{[]string{"inject"}, "a.txt.zst"},
		{[]string{"inject", "--compress=false"}, "a.txt"},
	}

	for i, table := range tables {
		output := filepath.Join(dir, fmt.Sprintf("output%d.png", i))

		_, err := runConfig(t, config, append(table.args, cover, secret, output)...)
		require.NoError(t, err)

		out, err := run(t, "info", output)
		require.NoError(t, err)
		assert.Contains(t, out, "File:     "+table.want+"\n")
	}
}

func TestPlane(t *testing.T) {
	dir := t.TempDir()
	cover := filepath.Join(dir, "cover.png")
	writeCover(t, cover, 16, 16)

	for _, name := range []string{"plane.png", "plane.gif", "plane.bmp", "plane.qoi"} {
		_, err := run(t, "plane", cover, filepath.Join(dir, name))
		require.NoError(t, err, name)
	}

	output := filepath.Join(dir, "plane.jpg")
	_, err := run(t, "plane", cover, output)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(t, err))

	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}
