package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/urfave/cli-altsrc/v3"
	toml "github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/catalog"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/config"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/locale"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/logger"
)

// hospitalCatalog is replaced in tests.
var hospitalCatalog = catalog.Hospital

func validateWriteMode(mode string, l *locale.Locale) error {
	if !slices.Contains(config.WriteModes, strings.ToLower(mode)) {
		return fmt.Errorf(l.Errors.InvalidWriteMode, mode)
	}
	return nil
}

func validateOutputFormat(path string, l *locale.Locale) error {
	if strings.ToLower(filepath.Ext(path)) != ".xlsx" {
		return fmt.Errorf("%s", l.Errors.OutputFormatEmpty)
	}
	return nil
}

// HospitalReport builds and runs the command line. cfg was loaded from
// configPath; a different --config reloads it before any command runs.
func HospitalReport(ctx context.Context, cfg *config.Config, configPath string, args []string, out io.Writer) error {
	var archivePath string
	var writeMode string
	var localeName string

	l, err := locale.Load(cfg.Locale)
	if err != nil {
		return err
	}

	app := &app{cfg: cfg, out: out}

	cmd := &cli.Command{
		Name:        "hospital-report",
		Usage:       l.CLI.Description,
		Description: l.CLI.Description,
		Writer:      out,
		ErrWriter:   out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: configPath,
				Usage: l.CLI.Flags.Config,
			},
			&cli.StringFlag{
				Name:        "archive",
				Aliases:     []string{"a"},
				Value:       cfg.Archive.Path,
				Usage:       l.CLI.Flags.Archive,
				Destination: &archivePath,
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("HOSPITAL_ARCHIVE_PATH"),
					toml.TOML("archive.path", altsrc.StringSourcer(configPath)),
				),
			},
			&cli.StringFlag{
				Name:        "locale",
				Value:       cfg.Locale,
				Usage:       l.CLI.Flags.Locale,
				Destination: &localeName,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if c.IsSet("config") && c.String("config") != configPath {
				reloaded, err := config.Load(c.String("config"))
				if err != nil {
					return ctx, err
				}
				if err := logger.Setup(reloaded.Logging); err != nil {
					return ctx, err
				}
				app.cfg = reloaded
				if !c.IsSet("archive") {
					archivePath = reloaded.Archive.Path
				}
			}
			if c.IsSet("locale") {
				if _, err := locale.Load(localeName); err != nil {
					return ctx, err
				}
			}
			app.archivePath = archivePath
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: l.CLI.Commands.Run,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "only",
						Aliases: []string{"o"},
						Usage:   l.CLI.Flags.Only,
					},
					&cli.StringFlag{
						Name:        "mode",
						Aliases:     []string{"m"},
						Value:       cfg.Archive.WriteMode,
						Usage:       l.CLI.Flags.Mode,
						Destination: &writeMode,
						Sources: cli.NewValueSourceChain(
							toml.TOML("archive.write_mode", altsrc.StringSourcer(configPath))),
						Action: func(ctx context.Context, c *cli.Command, s string) error {
							return validateWriteMode(s, l)
						},
					},
					&cli.StringFlag{
						Name:  "excel",
						Usage: l.CLI.Flags.Excel,
						Action: func(ctx context.Context, c *cli.Command, s string) error {
							return validateOutputFormat(s, l)
						},
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					_, err := app.runCatalog(ctx, runOptions{
						only:  c.StringSlice("only"),
						mode:  strings.ToLower(writeMode),
						excel: c.String("excel"),
					})
					return err
				},
			},
			{
				Name:  "list",
				Usage: l.CLI.Commands.List,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "sql",
						Usage: l.CLI.Flags.ShowSQL,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return app.list(c.Bool("sql"))
				},
			},
			{
				Name:  "check",
				Usage: l.CLI.Commands.Check,
				Action: func(ctx context.Context, c *cli.Command) error {
					return app.check(ctx)
				},
			},
			{
				Name:      "export",
				Usage:     l.CLI.Commands.Export,
				ArgsUsage: l.CLI.Args.Export,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "latest",
						Usage: l.CLI.Flags.Latest,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					output := c.Args().Get(0)
					if output == "" {
						return fmt.Errorf(locale.L.Errors.MissingArgument, l.CLI.Args.Export)
					}
					if err := validateOutputFormat(output, locale.L); err != nil {
						return err
					}
					return app.export(ctx, output, c.Bool("latest"))
				},
			},
			{
				Name:  "schedule",
				Usage: l.CLI.Commands.Schedule,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "only",
						Aliases: []string{"o"},
						Usage:   l.CLI.Flags.Only,
					},
					&cli.StringFlag{
						Name:  "cron",
						Value: cfg.Schedule.Cron,
						Usage: l.CLI.Flags.Cron,
						Sources: cli.NewValueSourceChain(
							toml.TOML("schedule.cron", altsrc.StringSourcer(configPath))),
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return app.schedule(ctx, c.String("cron"), runOptions{
						only: c.StringSlice("only"),
						mode: app.cfg.Archive.WriteMode,
					})
				},
			},
		},
	}

	return cmd.Run(ctx, args)
}
