package cli

import (
	"context"
	"flag"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/peterbourgon/ff/ffyaml"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/sjokstudio/sjok-2025/pkg/cmd/analyze"
	"github.com/sjokstudio/sjok-2025/pkg/cmd/play"
	"github.com/sjokstudio/sjok-2025/pkg/cmd/serve"
)

func New(version, commit, date string) *ffcli.Command {
	fs := flag.NewFlagSet("sjok", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "sjok [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newVersionCommand(version, commit, date),
			newAnalyzeCommand(),
			newPlayCommand(),
			newServeCommand(),
		},
	}
}

func newVersionCommand(version, commit, date string) *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "sjok version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			versionFields := []string{v}
			if commit != "" {
				versionFields = append(versionFields, commit)
			}
			if date != "" {
				versionFields = append(versionFields, date)
			}
			fmt.Println(strings.Join(versionFields, " "))
			return nil
		},
	}
}

func newAnalyzeCommand() *ffcli.Command {
	cmd := "analyze"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &analyze.Config{}

	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Input, "input", "", "audio file to analyze")
	fs.StringVar(&cfg.Output, "output", "", "output folder for plots")
	fs.BoolVar(&cfg.Plot, "plot", false, "write waveform and rms plots")
	fs.StringVar(&cfg.Key, "key", "", "analyzer api key")
	fs.StringVar(&cfg.Model, "model", "", "analyzer model")
	fs.StringVar(&cfg.Host, "host", "", "analyzer host (optional)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("sjok %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ffyaml.Parser),
			ff.WithEnvVarPrefix("SJOK"),
		},
		ShortHelp: "analyze the tempo, key and mood of an audio file",
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return analyze.Run(ctx, cfg)
		},
	}
}

func newPlayCommand() *ffcli.Command {
	cmd := "play"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &play.Config{}

	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Input, "input", "", "audio file to play")
	fs.BoolVar(&cfg.SkipAnalysis, "skip-analysis", false, "play without the remote analysis")
	fs.StringVar(&cfg.Key, "key", "", "analyzer api key")
	fs.StringVar(&cfg.Model, "model", "", "analyzer model")
	fs.StringVar(&cfg.Host, "host", "", "analyzer host (optional)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("sjok %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ffyaml.Parser),
			ff.WithEnvVarPrefix("SJOK"),
		},
		ShortHelp: "play an audio file with a live spectrum display",
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			return play.Run(ctx, cfg)
		},
	}
}

func newServeCommand() *ffcli.Command {
	cmd := "serve"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &serve.Config{}

	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.StringVar(&cfg.Addr, "addr", "localhost:1314", "address to listen on")
	fs.BoolVar(&cfg.Open, "open", false, "open the web ui in the browser")
	fs.StringVar(&cfg.Key, "key", "", "analyzer api key")
	fs.StringVar(&cfg.Model, "model", "", "analyzer model")
	fs.StringVar(&cfg.Host, "host", "", "analyzer host (optional)")
	fsVar := fs.String("credentials", "", "basic auth credentials (user:pass,user:pass)")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("sjok %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ffyaml.Parser),
			ff.WithEnvVarPrefix("SJOK"),
		},
		ShortHelp: "serve the upload and analysis web ui",
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			if *fsVar != "" {
				cfg.Credentials = map[string]string{}
				for _, pair := range strings.Split(*fsVar, ",") {
					user, pass, ok := strings.Cut(pair, ":")
					if !ok {
						return fmt.Errorf("invalid credentials %q", pair)
					}
					cfg.Credentials[user] = pass
				}
			}
			return serve.Serve(ctx, cfg)
		},
	}
}
