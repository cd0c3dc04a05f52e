package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bodgit/scextract"
	"github.com/bodgit/scextract/imagefile"
	"github.com/bodgit/scextract/manifest"
	"github.com/bodgit/scextract/pixel"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultOutDir = "extracts"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(cfg *config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	var writers []io.Writer
	if cfg.Bool("verbose") {
		writers = append(writers, os.Stderr)
		logger.SetLevel(logrus.DebugLevel)
	}
	if file := cfg.String("log-file"); file != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10,
			MaxBackups: 3,
			Compress:   true,
		})
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	return logger
}

// outDir works out where to extract to, an "extracts" directory beneath
// either the --out directory or the directory holding path.
func outDir(cfg *config, path string) (string, error) {
	if dir := cfg.String("out"); dir != "" {
		return filepath.Join(dir, defaultOutDir), nil
	}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		return "", err
	case info.IsDir():
		return filepath.Join(path, defaultOutDir), nil
	default:
		return filepath.Join(filepath.Dir(path), defaultOutDir), nil
	}
}

func extract(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	path := c.Args().First()

	cfg, err := newConfig(c)
	if err != nil {
		return cli.Exit(err, 1)
	}

	logger := newLogger(cfg)

	opts := scextract.Options{
		PNGDir:        cfg.String("png"),
		Delete:        cfg.Bool("delete"),
		Parallel:      cfg.Bool("parallelize"),
		Workers:       cfg.Int("workers"),
		DisableFilter: cfg.Bool("disable-filter"),
		SkipUnchanged: cfg.Bool("skip-unchanged"),
		CacheSize:     cfg.Int64("cache-size"),
	}

	if opts.OutDir, err = outDir(cfg, path); err != nil {
		return cli.Exit(err, 1)
	}
	if opts.Kind, err = scextract.ParseKind(cfg.String("type")); err != nil {
		return cli.Exit(err, 1)
	}
	if opts.Image.Format, err = imagefile.ParseFormat(cfg.String("format")); err != nil {
		return cli.Exit(err, 1)
	}
	opts.Image.Colors = cfg.Int("colors")
	if opts.Expansion, err = pixel.ParseExpansion(cfg.String("expand")); err != nil {
		return cli.Exit(err, 1)
	}

	var db *manifest.DB
	if file := cfg.String("db"); file != "" {
		if db, err = manifest.Open(file); err != nil {
			return cli.Exit(err, 1)
		}
		defer db.Close()
	}

	e, err := scextract.New(opts, db, logger)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	report, err := e.Run(ctx, path)
	if err != nil {
		return cli.Exit(err, 1)
	}

	fmt.Fprintf(c.App.Writer, "Extracted %d file(s) to %s\n", report.Processed(), opts.OutDir)

	if err := report.Err(); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	for _, file := range c.Args().Slice() {
		b, err := os.ReadFile(file)
		if err != nil {
			return cli.Exit(err, 1)
		}

		i, err := scextract.Inspect(file, b)
		if err != nil {
			return cli.Exit(fmt.Errorf("%s: %w", file, err), 1)
		}

		printInfo(c.App.Writer, file, i)
	}

	return nil
}

func printInfo(w io.Writer, file string, i *scextract.Info) {
	fmt.Fprintf(w, "%s: %s\n", file, i.Kind)
	if i.Header != nil {
		fmt.Fprintf(w, "  header: version %d, hash %X\n", i.Header.Version, i.Header.Hash)
	}
	fmt.Fprintf(w, "  size: %d bytes\n", i.Size)

	for _, t := range i.Textures {
		fmt.Fprintf(w, "  texture %d: tag %d, %s, %dx%d\n", t.Index, t.Tag, t.Format, t.Width, t.Height)
	}

	if s := i.Shapes; s != nil {
		fmt.Fprintf(w, "  shapes: %d, movie clips: %d, textures: %d, text fields: %d\n", s.Counts.Shapes, s.Counts.MovieClips, s.Counts.Textures, s.Counts.TextFields)
		for _, t := range s.Textures {
			fmt.Fprintf(w, "  texture: %s, %dx%d\n", t.Format, t.Width, t.Height)
		}
		for _, e := range s.Exports {
			fmt.Fprintf(w, "  export %d: %s\n", e.ID, e.Name)
		}
	}

	if i.Columns != nil {
		fmt.Fprintf(w, "  rows: %d\n  columns: %s\n", i.Rows, strings.Join(i.Columns, ", "))
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "scextract"
	app.Usage = "Supercell game asset extraction utility"
	app.Version = "1.0.0"

	app.Commands = []*cli.Command{
		{
			Name:        "extract",
			Usage:       "Extract images, sprites and tables",
			Description: "PATH is either a single file or a directory of _tex.sc, .csv and extracted .sc files.",
			ArgsUsage:   "PATH",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "config",
					EnvVars: []string{"SCEXTRACT_CONFIG"},
					Usage:   "read options from `FILE`",
				},
				&cli.StringFlag{
					Name:    "out",
					Aliases: []string{"o"},
					Usage:   "extract beneath `DIRECTORY`",
				},
				&cli.StringFlag{
					Name:    "png",
					Aliases: []string{"P"},
					Usage:   "read atlases for shape files from `DIRECTORY`",
				},
				&cli.StringFlag{
					Name:    "type",
					Aliases: []string{"t"},
					Usage:   "only extract files of `TYPE` (tex, sc or csv)",
				},
				&cli.BoolFlag{
					Name:    "delete",
					Aliases: []string{"d"},
					Usage:   "delete source files that extract cleanly",
				},
				&cli.BoolFlag{
					Name:    "parallelize",
					Aliases: []string{"p"},
					Usage:   "process files in parallel",
				},
				&cli.IntFlag{
					Name:  "workers",
					Usage: "number of parallel workers, defaults to the number of CPUs",
				},
				&cli.BoolFlag{
					Name:    "disable-filter",
					Aliases: []string{"F"},
					Usage:   "do not ignore .DS_Store and quickbms files",
				},
				&cli.StringFlag{
					Name:  "format",
					Value: "png",
					Usage: "write images as `FORMAT` (png, bmp or tiff)",
				},
				&cli.IntFlag{
					Name:  "colors",
					Usage: "reduce images to a palette of at most `N` colors",
				},
				&cli.StringFlag{
					Name:  "expand",
					Value: "replicate",
					Usage: "widen low bit depth channels by `METHOD`, replicate or shift (shift matches older extractors)",
				},
				&cli.Int64Flag{
					Name:  "cache-size",
					Usage: "keep up to `BYTES` of decoded atlases in memory",
				},
				&cli.StringFlag{
					Name:    "db",
					EnvVars: []string{"SCEXTRACT_DB"},
					Usage:   "record runs in the manifest database `FILE`",
				},
				&cli.BoolFlag{
					Name:  "skip-unchanged",
					Usage: "skip files the manifest has already extracted cleanly",
				},
				&cli.StringFlag{
					Name:  "log-file",
					Usage: "also write the log to `FILE`",
				},
				&cli.BoolFlag{
					Name:    "verbose",
					Aliases: []string{"v"},
					Usage:   "increase verbosity",
				},
			},
			Action: extract,
		},
		{
			Name:        "info",
			Usage:       "Describe asset files without extracting them",
			Description: "",
			ArgsUsage:   "FILE...",
			Action:      info,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
