package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haolipeng/webstr/pkg/api"
	"github.com/haolipeng/webstr/pkg/compiler"
	"github.com/haolipeng/webstr/pkg/store"
	"github.com/haolipeng/webstr/pkg/xtables"
	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	// 注册 webstr 扩展
	_ "github.com/haolipeng/webstr/pkg/webstr"
)

var usageCmd = &cli.Command{
	Name:  "usage",
	Usage: "Print the options of the registered match extensions",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		xtables.DefaultRegistry.Help(cmd.Root().Writer)
		return nil
	},
}

func (a *app) newCompiler() *compiler.Compiler {
	return compiler.New(xtables.DefaultRegistry, a.metrics, a.cfg.Render.RoundTrip)
}

func (a *app) checkCmd() *cli.Command {
	return &cli.Command{
		Name:            "check",
		Usage:           "Parse match options and print the resulting rule without storing it",
		ArgsUsage:       "--host|--url|--content [!] <pattern>",
		SkipFlagParsing: true,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c := a.newCompiler()
			rec, err := c.Compile("", cmd.Args().Slice())
			if err != nil {
				return err
			}
			listing, err := c.Render(rec)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			fmt.Fprintln(w, listing.Verbose)
			fmt.Fprintln(w, listing.Save)
			fmt.Fprintln(w, hex.EncodeToString(rec.Data))
			return nil
		},
	}
}

func (a *app) withStore(ctx context.Context, fn func(s store.Store) error) error {
	s, err := store.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (a *app) addCmd() *cli.Command {
	return &cli.Command{
		Name:            "add",
		Usage:           "Parse match options and store the rule",
		ArgsUsage:       "<rule-id> --host|--url|--content [!] <pattern>",
		SkipFlagParsing: true,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return fmt.Errorf("rule id required")
			}
			ruleID := cmd.Args().First()

			c := a.newCompiler()
			rec, err := c.Compile(ruleID, cmd.Args().Tail())
			if err != nil {
				return err
			}
			return a.withStore(ctx, func(s store.Store) error {
				if err := s.Put(ctx, rec); err != nil {
					return err
				}
				listing, err := c.Render(rec)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.Root().Writer, "%s: %s\n", ruleID, listing.Verbose)
				return nil
			})
		},
	}
}

// printRules 逐条输出已保存的规则，单条规则损坏时记录日志后继续
func (a *app) printRules(ctx context.Context, cmd *cli.Command, save bool) error {
	c := a.newCompiler()
	return a.withStore(ctx, func(s store.Store) error {
		records, err := s.List(ctx)
		if err != nil {
			return err
		}
		w := cmd.Root().Writer
		for _, rec := range records {
			listing, err := c.Render(rec)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"rule_id": rec.RuleID,
					"error":   err.Error(),
				}).Error("cannot render rule")
				continue
			}
			if save {
				fmt.Fprintf(w, "-A %s -m %s %s\n", shellquote.Join(rec.RuleID), listing.Match, listing.Save)
			} else {
				fmt.Fprintf(w, "%s: %s\n", rec.RuleID, listing.Verbose)
			}
		}
		return nil
	})
}

func (a *app) listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored rules in verbose form",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.printRules(ctx, cmd, false)
		},
	}
}

func (a *app) saveCmd() *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Print stored rules in save form",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.printRules(ctx, cmd, true)
		},
	}
}

func (a *app) deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a stored rule",
		ArgsUsage: "<rule-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("exactly one rule id required")
			}
			return a.withStore(ctx, func(s store.Store) error {
				return s.Delete(ctx, cmd.Args().First())
			})
		},
	}
}

func (a *app) serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the rule management HTTP API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.withStore(ctx, func(s store.Store) error {
				srv := api.NewServer(a.cfg)
				srv.RegisterRuleService(api.NewRuleService(s, a.newCompiler()))

				errCh := make(chan error, 1)
				go func() {
					errCh <- srv.Start()
				}()
				logrus.Infof("API listening on %s:%s", a.cfg.API.Host, a.cfg.API.Port)

				// 等待中断信号
				sigChan := make(chan os.Signal, 1)
				signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
				defer signal.Stop(sigChan)

				select {
				case err := <-errCh:
					return err
				case sig := <-sigChan:
					logrus.Infof("Received signal %v, shutting down...", sig)
				case <-ctx.Done():
				}

				// 优雅退出
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Stop(shutdownCtx); err != nil {
					logrus.Errorf("Error stopping API server: %v", err)
				}
				logrus.Info("Shutdown complete")
				return nil
			})
		},
	}
}
