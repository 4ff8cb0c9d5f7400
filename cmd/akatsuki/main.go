package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/bodgit/akatsuki"
	"github.com/bodgit/akatsuki/catalog"
	"github.com/bodgit/akatsuki/config"
	"github.com/bodgit/akatsuki/plane"
	"github.com/bodgit/akatsuki/raster"
	"github.com/urfave/cli/v2"
)

const kilobyte = 1024

var modes = []string{"inject", "extract", "info"}

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

type options struct {
	decompress bool
	format     string
}

// setup builds an Akatsuki from the configuration file overlaid with any
// flags that were set. The returned function releases the catalog.
func setup(c *cli.Context, o options) (*akatsuki.Akatsuki, func(), error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") || cfg.Verbose {
		logger.SetOutput(os.Stderr)
	}

	db := cfg.DB
	if c.IsSet("db") {
		db = c.String("db")
	}

	workers := cfg.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}

	compress := cfg.Compress
	if c.IsSet("compress") {
		compress = c.Bool("compress")
	}

	format := cfg.Format
	if o.format != "" {
		format = o.format
	}

	opts := []func(*akatsuki.Akatsuki) error{
		akatsuki.Compress(compress),
		akatsuki.Decompress(o.decompress),
		akatsuki.Format(format),
		akatsuki.Workers(workers),
	}

	closer := func() {}
	if db != "" {
		cat, err := catalog.Open(db)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, akatsuki.Catalog(cat))
		closer = func() {
			cat.Close()
		}
	}

	a, err := akatsuki.New(logger, opts...)
	if err != nil {
		closer()
		return nil, nil, err
	}

	return a, closer, nil
}

func usage(c *cli.Context) error {
	return cli.Exit(fmt.Sprintf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage), 1)
}

// selectMode returns the single mode flag that was set
func selectMode(c *cli.Context) (string, error) {
	var selected []string
	for _, mode := range modes {
		if c.Bool(mode) {
			selected = append(selected, mode)
		}
	}
	if len(selected) != 1 {
		return "", errors.New("you must specify exactly one of --info, --extract, or --inject")
	}
	return selected[0], nil
}

func printReport(w io.Writer, r *akatsuki.Report) {
	fmt.Fprintf(w, "Image:    %dx%d\n", r.Width, r.Height)
	fmt.Fprintf(w, "Capacity: %d bytes (%d KiB)\n", r.Capacity, r.Capacity/kilobyte)
	if r.Name != "" || r.Size != 0 {
		fmt.Fprintf(w, "File:     %s\n", r.Name)
		fmt.Fprintf(w, "Size:     %d bytes (%d KiB)\n", r.Size, r.Size/kilobyte)
	}
}

func info(w io.Writer, a *akatsuki.Akatsuki, image string) error {
	r, err := a.InfoFile(image)
	if r != nil {
		printReport(w, r)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s doesn't contain a valid header: %s", image, err), 1)
	}
	return nil
}

func extract(w io.Writer, a *akatsuki.Akatsuki, image, dir string) error {
	if err := info(w, a, image); err != nil {
		return err
	}
	file, err := a.ExtractFile(image, dir)
	if err != nil {
		return cli.Exit(err, 1)
	}
	fmt.Fprintf(w, "Wrote:    %s\n", file)
	return nil
}

func inject(a *akatsuki.Akatsuki, image, secret, output string) error {
	if err := a.InjectFile(image, secret, output); err != nil {
		var e *akatsuki.PayloadTooLargeError
		if errors.As(err, &e) {
			return cli.Exit(fmt.Sprintf("The target container is too small for the secret. Maximum file size is %d bytes", e.Capacity), 1)
		}
		return cli.Exit(err, 1)
	}
	return nil
}

// modeAction handles the --inject, --extract and --info flags when no
// command is given
func modeAction(c *cli.Context) error {
	mode, err := selectMode(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	image, secret, output := c.String("image"), c.String("secret"), c.String("output")

	switch mode {
	case "inject":
		if image == "" || secret == "" || output == "" {
			return cli.Exit("you must specify all of --image, --secret, and --output", 1)
		}
	default:
		if image == "" {
			return cli.Exit("you must specify an image to open with --image", 1)
		}
	}

	a, closer, err := setup(c, options{decompress: true})
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer closer()

	switch mode {
	case "inject":
		return inject(a, image, secret, output)
	case "extract":
		return extract(c.App.Writer, a, image, output)
	default:
		return info(c.App.Writer, a, image)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "akatsuki"
	app.Usage = "Hide files inside images"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			EnvVars: []string{"AKATSUKI_CONFIG"},
			Value:   config.DefaultPath(),
			Usage:   "path to configuration file",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"AKATSUKI_DB"},
			Usage:   "path to catalog database",
		},
		&cli.IntFlag{
			Name:    "workers",
			EnvVars: []string{"AKATSUKI_WORKERS"},
			Value:   config.DefaultWorkers,
			Usage:   "number of images to scan concurrently",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.BoolFlag{
			Name:  "inject",
			Usage: "hide --secret in --image, writing --output",
		},
		&cli.BoolFlag{
			Name:  "extract",
			Usage: "recover the file hidden in --image into the --output directory",
		},
		&cli.BoolFlag{
			Name:  "info",
			Usage: "show what is hidden in --image",
		},
		&cli.StringFlag{
			Name:    "image",
			Aliases: []string{"i"},
			Usage:   "image to read",
		},
		&cli.StringFlag{
			Name:    "secret",
			Aliases: []string{"s"},
			Usage:   "file to hide",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "image or directory to write",
		},
	}

	app.Action = modeAction

	app.Commands = []*cli.Command{
		{
			Name:      "inject",
			Usage:     "Hide a file inside an image",
			ArgsUsage: "IMAGE SECRET OUTPUT",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "compress",
					Usage: "compress the file with zstd first",
				},
				&cli.StringFlag{
					Name:  "format",
					Usage: "output format if OUTPUT has no image extension",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					return usage(c)
				}

				a, closer, err := setup(c, options{
					decompress: true,
					format:     c.String("format"),
				})
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				return inject(a, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
			},
		},
		{
			Name:      "extract",
			Usage:     "Recover a file hidden inside an image",
			ArgsUsage: "IMAGE [DIRECTORY]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "decompress",
					Value: true,
					Usage: "decompress files that were compressed on the way in",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					return usage(c)
				}

				a, closer, err := setup(c, options{
					decompress: c.Bool("decompress"),
				})
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				return extract(c.App.Writer, a, c.Args().Get(0), c.Args().Get(1))
			},
		},
		{
			Name:      "info",
			Usage:     "Show the capacity of an image and what is hidden in it",
			ArgsUsage: "IMAGE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					return usage(c)
				}

				a, closer, err := setup(c, options{decompress: true})
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				return info(c.App.Writer, a, c.Args().First())
			},
		},
		{
			Name:      "scan",
			Usage:     "Look for hidden files in every image under a directory",
			ArgsUsage: "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					return usage(c)
				}

				a, closer, err := setup(c, options{decompress: true})
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer closer()

				results, err := a.Scan(context.Background(), c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				tw := tabwriter.NewWriter(c.App.Writer, 0, 8, 1, ' ', 0)
				for _, r := range results {
					if r.Err != nil {
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Path, r.Report.Name, r.Report.Size)
				}
				return tw.Flush()
			},
		},
		{
			Name:      "plane",
			Usage:     "Render the low bit plane of an image",
			ArgsUsage: "IMAGE OUTPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					return usage(c)
				}

				output := c.Args().Get(1)
				format := raster.FormatFromPath(output)
				if !plane.Supported(format) {
					return cli.Exit(fmt.Sprintf("cannot write the plane as %s", format), 1)
				}

				m, _, err := raster.DecodeFile(c.Args().Get(0))
				if err != nil {
					return cli.Exit(err, 1)
				}

				f, err := os.Create(output)
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := plane.Encode(f, plane.Render(m), format); err != nil {
					f.Close()
					os.Remove(output)
					return cli.Exit(err, 1)
				}

				if err := f.Close(); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:  "catalog",
			Usage: "List the injections recorded in the catalog",
			Action: func(c *cli.Context) error {
				cfg, err := config.Load(c.String("config"))
				if err != nil {
					return cli.Exit(err, 1)
				}

				db := cfg.DB
				if c.IsSet("db") {
					db = c.String("db")
				}
				if db == "" {
					return cli.Exit("no catalog configured, use --db", 1)
				}

				cat, err := catalog.Open(db)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer cat.Close()

				entries, err := cat.List()
				if err != nil {
					return cli.Exit(err, 1)
				}

				tw := tabwriter.NewWriter(c.App.Writer, 0, 8, 1, ' ', 0)
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", e.Created.Format("2006-01-02 15:04:05"), e.Image, e.Name, e.Size, e.ImageSHA1)
				}
				return tw.Flush()
			},
		},
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
