package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/projx/gphotos-export/pkg/version"
)

func main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "print the version",
	}

	app := &cli.App{
		Name:                 "gpexport",
		Usage:                "Export Google Photos Takeout archives into a dated, deduplicated folder tree",
		Version:              version.Version,
		EnableBashCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML configuration file",
				EnvVars: []string{"GPEXPORT_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Record store path (overrides store.path)",
			},
			&cli.StringFlag{
				Name:    "archives",
				Aliases: []string{"a"},
				Usage:   "Directory holding the Takeout zip archives",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Directory the export tree is created in",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write logs to this file",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable progress bars",
			},
		},
		Before: loadEnv,
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Printf("Version:    %s\n", version.Version)
					fmt.Printf("Git commit: %s\n", version.GitCommit)
					fmt.Printf("Built:      %s\n", version.BuildTime)
					return nil
				},
			},
			{
				Name:   "run",
				Usage:  "Index, match, classify, deduplicate and export every archive",
				Action: runAll,
			},
			{
				Name:   "index",
				Usage:  "Index archives and parse their metadata files",
				Action: runIndex,
			},
			{
				Name:   "match",
				Usage:  "Match media with metadata, assign folders and deduplicate albums",
				Action: runMatch,
			},
			{
				Name:   "export",
				Usage:  "Export matched files from an indexed store",
				Action: runExport,
			},
			{
				Name:   "status",
				Usage:  "Show record store status",
				Action: showStatus,
			},
			{
				Name:  "report",
				Usage: "Write unmatched media and metadata parse failures to a report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Report format (yaml, xlsx)",
						Value: "yaml",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Report file (yaml defaults to stdout, xlsx to report.xlsx)",
					},
				},
				Action: writeReport,
			},
			{
				Name:  "push",
				Usage: "Upload exported files to a MinIO/S3 bucket",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "endpoint",
						Usage: "MinIO endpoint (overrides push.endpoint)",
					},
					&cli.StringFlag{
						Name:  "bucket",
						Usage: "Bucket name (overrides push.bucket)",
					},
					&cli.StringFlag{
						Name:  "folder",
						Usage: "Destination folder inside the bucket (overrides push.folder)",
					},
					&cli.StringFlag{
						Name:    "access-key",
						Usage:   "MinIO access key",
						EnvVars: []string{"GPEXPORT_ACCESS_KEY"},
					},
					&cli.StringFlag{
						Name:    "secret-key",
						Usage:   "MinIO secret key",
						EnvVars: []string{"GPEXPORT_SECRET_KEY"},
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of parallel workers for uploading files (overrides push.workers)",
					},
					&cli.BoolFlag{
						Name:  "insecure",
						Usage: "Use plain HTTP",
					},
				},
				Action: startPush,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
