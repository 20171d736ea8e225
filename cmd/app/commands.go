package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/starford/tagfile/internal"
	"github.com/starford/tagfile/internal/gallery"
	pkgconfig "github.com/starford/tagfile/pkg/config"
)

// loadConfig reads the --config file over the defaults. A missing file
// keeps the defaults so one-off commands work in any folder.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOrDefault(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if dir := cmd.String("dir"); dir != "" {
		cfg.Gallery.Path = dir
	}
	return cfg, nil
}

func cliLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
}

func dirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "dir",
		Aliases: []string{"d"},
		Usage:   "Gallery folder (overrides gallery.path)",
	}
}

func tagFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "tag",
			Aliases: []string{"t"},
			Usage:   "Tag to apply (repeatable)",
		},
		&cli.StringFlag{
			Name:  "base",
			Usage: "Explicit counter-less new name, instead of composing from --tag",
		},
		&cli.BoolFlag{
			Name:  "clear-tags",
			Usage: "Remove every tag, leaving \"<base> - []\"",
		},
	}
}

// newBaseFrom picks --base, or composes current's base with --tag.
// --clear-tags composes an empty tag set.
func newBaseFrom(cmd *cli.Command, current string) (string, error) {
	if b := strings.TrimSpace(cmd.String("base")); b != "" {
		return b, nil
	}
	tags := cmd.StringSlice("tag")
	switch {
	case cmd.Bool("clear-tags") && len(tags) > 0:
		return "", errors.New("--clear-tags cannot be combined with --tag")
	case cmd.Bool("clear-tags"):
		return gallery.ComposeFor(current, nil), nil
	case len(tags) == 0:
		return "", errors.New("at least one --tag, --base or --clear-tags is required")
	}
	return gallery.ComposeFor(current, tags), nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API, the folder watcher and the event stream",
		Flags:  []cli.Flag{dirFlag()},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the tagging tools over MCP on stdin/stdout",
		Flags: []cli.Flag{dirFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return internal.RunMCP(ctx,
				internal.WithConfig(cfg),
				internal.WithLogger(cliLogger(cfg)),
				internal.WithVersion(version))
		},
	}
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Show how file names are read under the tag grammar",
		ArgsUsage: "NAME...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() == 0 {
				return errors.New("at least one NAME is required")
			}
			for _, name := range cmd.Args().Slice() {
				if err := printParsed(cmd.Root().Writer, name, cmd.Bool("json")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func printParsed(w io.Writer, name string, asJSON bool) error {
	p := gallery.Describe(name)
	if asJSON {
		return json.NewEncoder(w).Encode(p)
	}
	_, err := fmt.Fprintf(w, "%s\n  base:       %s\n  ext:        %s\n  tags:       %s\n  conformant: %t\n",
		p.Name, p.Base, p.Ext, strings.Join(p.Tags, ", "), p.Conformant)
	return err
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "List images whose names lack tags",
		Flags: []cli.Flag{
			dirFlag(),
			&cli.BoolFlag{Name: "strict", Usage: "Exit with status 1 when any image is untagged"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			g, err := internal.OpenGallery(cfg, cliLogger(cfg), false, nil)
			if err != nil {
				return err
			}
			defer g.Close()

			snap, err := g.Service.Load(ctx, nil)
			if err != nil {
				return err
			}
			out := cmd.Root().Writer
			untagged := 0
			for _, name := range snap.Files {
				if !gallery.Describe(name).Conformant {
					untagged++
					fmt.Fprintln(out, name)
				}
			}
			fmt.Fprintf(cmd.Root().ErrWriter, "%d of %d images untagged\n", untagged, len(snap.Files))
			if untagged > 0 && cmd.Bool("strict") {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func tagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Print the tag frequency table of the gallery",
		Flags: []cli.Flag{
			dirFlag(),
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Print only the first N tags"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Hide the progress bar"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			g, err := internal.OpenGallery(cfg, cliLogger(cfg), false, nil)
			if err != nil {
				return err
			}
			defer g.Close()

			var bar *progressSink
			if !cmd.Bool("quiet") {
				bar = newProgressSink(cmd.Root().ErrWriter, "reading tags")
			}
			snap, err := g.Service.Load(ctx, bar.Func())
			bar.Finish()
			if err != nil {
				return err
			}

			table := snap.Tags
			if n := int(cmd.Int("limit")); n > 0 && n < len(table) {
				table = table[:n]
			}
			tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', tabwriter.AlignRight)
			for _, c := range table {
				fmt.Fprintf(tw, "%d\t%s\n", c.Count, c.Tag)
			}
			return tw.Flush()
		},
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Show the final name a rename would produce",
		ArgsUsage: "NAME",
		Flags:     append([]cli.Flag{dirFlag()}, tagFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			current := cmd.Args().First()
			if current == "" {
				return errors.New("NAME is required")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			newBase, err := newBaseFrom(cmd, current)
			if err != nil {
				return err
			}
			g, err := internal.OpenGallery(cfg, cliLogger(cfg), false, nil)
			if err != nil {
				return err
			}
			defer g.Close()

			printPreview(cmd.Root().Writer, g.Service.Preview(ctx, current, newBase))
			return nil
		},
	}
}

func printPreview(w io.Writer, p gallery.Preview) {
	fmt.Fprintln(w, p.Final)
	if p.Conflict {
		fmt.Fprintln(w, "  counter range exhausted; rename would fail")
	}
	if p.TooLong {
		fmt.Fprintf(w, "  too long: name %d chars, path %d chars (use --force)\n", p.FilenameLen, p.PathLen)
	}
}

func renameCommand() *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename an image to its tags plus the lowest free counter",
		ArgsUsage: "NAME",
		Flags: append([]cli.Flag{
			dirFlag(),
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Accept names over the length limits"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Only print the name that would be used"},
		}, tagFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			current := cmd.Args().First()
			if current == "" {
				return errors.New("NAME is required")
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			newBase, err := newBaseFrom(cmd, current)
			if err != nil {
				return err
			}

			// Keep an existing index in step; never create one from the CLI.
			_, statErr := os.Stat(cfg.SQLite.Path)
			g, err := internal.OpenGallery(cfg, cliLogger(cfg), statErr == nil, nil)
			if err != nil {
				return err
			}
			defer g.Close()

			if cmd.Bool("dry-run") {
				printPreview(cmd.Root().Writer, g.Service.Preview(ctx, current, newBase))
				return nil
			}
			res, err := g.Service.Rename(ctx, gallery.RenameRequest{
				Current: current,
				NewBase: newBase,
				Force:   cmd.Bool("force"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().Writer, "%s -> %s\n", res.Old, res.New)
			return nil
		},
	}
}
