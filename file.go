package akatsuki

import (
	"crypto/sha1"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/akatsuki/catalog"
	"github.com/bodgit/akatsuki/header"
	"github.com/bodgit/akatsuki/raster"
)

func sha1Hex(b []byte) string {
	return fmt.Sprintf("%X", sha1.Sum(b))
}

// decodeFile decodes the image in file, also returning the SHA-1 of the raw
// file contents
func decodeFile(file string) (*image.NRGBA, string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	h := sha1.New()
	m, _, err := raster.Decode(io.TeeReader(f, h))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", file, err)
	}

	// Image decoders needn't read to the end
	if _, err := io.Copy(h, f); err != nil {
		return nil, "", err
	}

	return m, fmt.Sprintf("%X", h.Sum(nil)), nil
}

// writeFile writes to a temporary file alongside file and only renames it
// into place once fn has succeeded, so file is never left half written
func writeFile(file string, fn func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(file), "."+filepath.Base(file)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := fn(f); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Chmod(f.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(f.Name(), file)
}

// safeName reduces a name read from an image to a plain filename
func safeName(name string) (string, error) {
	base := filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	switch base {
	case ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("%w: unusable name %q", header.ErrInvalid, name)
	}
	return base, nil
}

// InjectFile hides the file secret in the image cover and writes the result
// to output. The format of output is taken from its extension, falling back
// to the configured default. Nothing is written if the secret does not fit.
func (a *Akatsuki) InjectFile(cover, secret, output string) error {
	m, _, err := decodeFile(cover)
	if err != nil {
		return err
	}

	b, err := os.ReadFile(secret)
	if err != nil {
		return err
	}
	name, suffix := filepath.Base(secret), ""

	if a.compress {
		n := len(b)
		if b, err = compress(b); err != nil {
			return err
		}
		suffix = compressedSuffix
		a.logger.Printf("Compressed \"%s\" from %d to %d bytes\n", secret, n, len(b))
	}

	// The suffix has to survive truncation to be recognised on extract
	if t := header.Truncate(name, header.NameSize-len(suffix)); t != name {
		a.logger.Printf("Name \"%s\" truncated to \"%s\"\n", name, t)
		name = t
	}
	name += suffix

	capacity := MaximumPayloadSize(m)
	a.logger.Printf("\"%s\" can hold %d bytes, payload is %d bytes\n", cover, capacity, len(b))

	format := a.format
	if raster.IsImage(output) {
		format = raster.FormatFromPath(output)
	}
	if !raster.Lossless(format) {
		return fmt.Errorf("%s: %w: %s", output, raster.ErrLossyFormat, format)
	}

	out, err := Inject(m, b, name)
	if err != nil {
		return err
	}

	h := sha1.New()
	if err := writeFile(output, func(w io.Writer) error {
		return raster.Encode(io.MultiWriter(w, h), out, format)
	}); err != nil {
		return err
	}
	a.logger.Printf("Wrote \"%s\" as %s\n", output, format)

	if a.catalog != nil {
		return a.catalog.Record(catalog.Entry{
			ImageSHA1:   fmt.Sprintf("%X", h.Sum(nil)),
			Image:       output,
			Name:        name,
			Size:        int64(len(b)),
			PayloadSHA1: sha1Hex(b),
			Compressed:  a.compress,
		})
	}

	return nil
}

// ExtractFile recovers the file hidden in the image at path and writes it to
// dir using the name stored in the header. The path of the written file is
// returned. Nothing is written unless the whole payload was recovered.
func (a *Akatsuki) ExtractFile(path, dir string) (string, error) {
	m, sum, err := decodeFile(path)
	if err != nil {
		return "", err
	}

	h, b, err := Extract(m)
	if err != nil {
		return "", err
	}

	name, err := h.FileName()
	if err != nil {
		return "", err
	}
	if name, err = safeName(name); err != nil {
		return "", err
	}
	a.logger.Printf("Found \"%s\", %d bytes\n", name, len(b))

	if a.catalog != nil {
		e, err := a.catalog.Find(sum)
		if err != nil {
			return "", err
		}
		switch {
		case e == nil:
			a.logger.Printf("No catalog entry for \"%s\"\n", path)
		case e.PayloadSHA1 == sha1Hex(b):
			a.logger.Printf("Payload matches catalog entry for \"%s\"\n", e.Image)
		default:
			a.logger.Printf("Payload does not match catalog entry for \"%s\"\n", e.Image)
		}
	}

	if a.decompress && isCompressed(name, b) {
		if b, err = decompress(b); err != nil {
			return "", err
		}
		name = strings.TrimSuffix(name, compressedSuffix)
		a.logger.Printf("Decompressed to \"%s\", %d bytes\n", name, len(b))
	}

	file := filepath.Join(dir, name)
	if err := writeFile(file, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	}); err != nil {
		return "", err
	}

	return file, nil
}

// InfoFile reports on the image at path without extracting the payload. If
// the image decodes but the header is unusable, a report with only the
// dimensions and capacity filled in is returned along with the error.
func (a *Akatsuki) InfoFile(path string) (*Report, error) {
	m, _, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	r, err := Info(m)
	if err != nil {
		b := m.Bounds()
		return &Report{
			Width:    b.Dx(),
			Height:   b.Dy(),
			Capacity: MaximumPayloadSize(m),
		}, err
	}

	return r, nil
}
