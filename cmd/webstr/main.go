package main

import (
	"context"
	"fmt"
	"os"

	"github.com/haolipeng/webstr/pkg/config"
	"github.com/haolipeng/webstr/pkg/metrics"
	"github.com/urfave/cli/v3"
)

// Version is set during build using ldflags
var Version = "dev"

// app 命令之间共享的状态，在 Before 中根据配置初始化
type app struct {
	cfg     *config.Config
	metrics *metrics.ExtensionMetrics
}

func newApp() *cli.Command {
	a := &app{metrics: &metrics.ExtensionMetrics{}}

	return &cli.Command{
		Name:    "webstr",
		Version: Version,
		Usage:   "Build, list and serve webstr match rules",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
			},
			&cli.BoolFlag{
				Name:  "round-trip",
				Usage: "Render saved rules with the criterion option so they can be parsed again",
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			usageCmd,
			a.checkCmd(),
			a.addCmd(),
			a.listCmd(),
			a.saveCmd(),
			a.deleteCmd(),
			a.serveCmd(),
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return ctx, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Bool("round-trip") {
		cfg.Render.RoundTrip = true
	}

	if err := InitLogger(cfg); err != nil {
		return ctx, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	return ctx, nil
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
