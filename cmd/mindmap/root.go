package main

import (
	"context"
	"fmt"
	"os"

	"mindmap-server/internal/bootstrap"
	"mindmap-server/internal/config"
	"mindmap-server/internal/pkg/logger"
	"mindmap-server/internal/server"
	"mindmap-server/internal/shutdown"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	addr       string
	port       uint16
	language   string
	outpath    string
	configFile string
)

func init() {
	rootCmd.Flags().StringVarP(&addr, "addr", "a", config.DefaultAddr, "ip address")
	rootCmd.Flags().Uint16VarP(&port, "port", "p", config.DefaultPort, "port")
	rootCmd.Flags().StringVarP(&language, "language", "l", config.DefaultLanguage, "language, support: zh_CN, zh_TW, en, ja, pt, ru")
	rootCmd.Flags().StringVarP(&outpath, "outpath", "o", config.DefaultOutpath, "output path")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file, the priority of -a/-p/-l/-o is higher than -c, default: "+config.ConfigFileName+" in current path or executable path")
}

var rootCmd = &cobra.Command{
	Use:           "mindmap",
	Short:         "mindmap server, based on mind-elixir v5.1.1",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := config.Resolve(explicitFlags(cmd))
		if err != nil {
			return err
		}
		for _, w := range params.Warnings {
			color.Yellow(w)
		}
		return run(params)
	},
}

// explicitFlags keeps only the flags typed on the command line so the config
// file can fill the rest.
func explicitFlags(cmd *cobra.Command) config.Flags {
	var f config.Flags
	if cmd.Flags().Changed("addr") {
		f.Addr = &addr
	}
	if cmd.Flags().Changed("port") {
		f.Port = &port
	}
	if cmd.Flags().Changed("language") {
		f.Language = &language
	}
	if cmd.Flags().Changed("outpath") {
		f.Outpath = &outpath
	}
	if cmd.Flags().Changed("config") {
		f.Config = &configFile
	}
	return f
}

func run(params *config.Params) error {
	cfg := config.Load()
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	container := bootstrap.NewContainer(params, cfg, sysLogger)
	loaded, local := container.Registry.Len()
	sysLogger.Info("Main", "Registry ready", map[string]interface{}{"loaded": loaded, "local": local, "outpath": params.Outpath})

	watcher := shutdown.NewWatcher(container.Registry, sysLogger,
		shutdown.WithHook(func() {
			_ = container.ShutdownTracer(context.Background())
			_ = sysLogger.Sync()
		}),
	)
	go watcher.Wait()

	srv := server.New(params, container)
	if err := srv.Run(); err != nil {
		sysLogger.Error("Main", "Server stopped", map[string]interface{}{"error": err.Error()})
		_ = sysLogger.Sync()
		return fmt.Errorf("serve %s: %w", params.ListenAddr(), err)
	}
	return fmt.Errorf("server on %s exited", params.ListenAddr())
}

func fatal(err error) {
	fmt.Fprintln(os.Stdout, color.RedString("%v", err))
	os.Exit(1)
}
