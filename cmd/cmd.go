// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/shzx/internal/formatter"
	"github.com/urfave/cli/v3"
)

// storeFlags select the history store: a zipped export or an unpacked LevelDB directory.
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "archive",
			Aliases: []string{"a"},
			Usage:   "Path to a .zip export containing a top-level db folder",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "Path to an unpacked LevelDB history directory",
		},
	}
}

// serveCommand runs the upload web service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP upload service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port from config)",
			},
		},
		Action: r.Serve,
	}
}

// syncCommand reconciles a history store into the destination playlist
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Add every song in the history to the destination playlist",
		Flags: append(storeFlags(),
			&cli.StringFlag{
				Name:  "auth",
				Usage: "Path to headers_auth.json (default: credentials.youtube.headers_path)",
			},
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Destination playlist title (default: sync.playlist_title)",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent catalog searches (default: sync.workers)",
			},
			&cli.IntFlag{
				Name:  "existing-limit",
				Usage: "Existing playlist tracks fetched for duplicate checks, 0 for all (default: sync.existing_limit)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the run report as JSON",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Interactive terminal UI",
			},
		),
		Action: r.Sync,
	}
}

// extractCommand prints the deduplicated songs without touching the catalog
func extractCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "List the distinct songs in a history store",
		Flags: append(storeFlags(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: " + formatNames(),
				Value:   string(formatter.FormatText),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		),
		Action: r.Extract,
	}
}

// historyCommand lists recorded runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the report of one run",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "markdown",
						Usage: "Output the report as Markdown",
					},
				},
				Action: r.HistoryShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a recorded run",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.HistoryDelete,
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for config, database and authentication.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt", "ytmusic"},
				Usage:   "Configure YouTube Music authentication from browser headers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for headers_auth.json (default: ~/.shzx/headers_auth.json)",
					},
				},
				Action: r.SetupYouTube,
			},
		},
	}
}

// catalogCommand exposes the catalog operations a sync uses, for checking auth and matches by hand
func catalogCommand(r *Runner) *cli.Command {
	authFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:  "auth",
			Usage: "Path to headers_auth.json (default: credentials.youtube.headers_path)",
		}
	}
	jsonFlag := func() cli.Flag {
		return &cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		}
	}

	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"ytm"},
		Usage:   "YouTube Music catalog operations",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search for a song the way sync does (\"title - artist\")",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags:  []cli.Flag{authFlag(), jsonFlag()},
				Action: r.CatalogSearch,
			},
			{
				Name:   "playlists",
				Usage:  "List library playlists",
				Flags:  []cli.Flag{authFlag(), jsonFlag()},
				Action: r.CatalogPlaylists,
			},
			{
				Name:  "tracks",
				Usage: "List the tracks of a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					authFlag(), jsonFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks, 0 for all",
					},
				},
				Action: r.CatalogTracks,
			},
		},
	}
}

// proxyCommand handles direct (proxy) API calls
func proxyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "proxy",
		Usage: "Direct calls to the ytmusicapi proxy",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the proxy, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.ProxyGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.ProxyPost,
			},
			{
				Name:   "health",
				Usage:  "Check the proxy is reachable (calls /health)",
				Action: r.ProxyHealth,
			},
		},
	}
}

// cacheCommand manages the search match cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the search match cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cached matches and hit counts",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached match",
				Action: r.CacheClear,
			},
		},
	}
}

func formatNames() string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
