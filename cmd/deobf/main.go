// Command deobf is the CLI driver for the deobfuscation pipeline: read a
// source file (or stdin), run it through the pipeline, write the result to
// a file (or stdout). Grounded on the teacher's cli/main.go (a single cobra
// root command with RunE, file-or-stdin input handling, explicit exit
// codes) without the teacher's secret-scrubbing stream lockdown, which has
// no counterpart here — this pipeline never executes anything the
// deobfuscated source could leak secrets through.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	deobf "github.com/aledsdavies/deobf"
	"github.com/aledsdavies/deobf/pkg/cache"
	"github.com/aledsdavies/deobf/pkg/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "deobf: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		configPath string
		cacheDir   string
		watch      bool
		debug      bool
	)

	cmd := &cobra.Command{
		Use:           "deobf [file]",
		Short:         "Deobfuscate a JavaScript file by rewriting its AST to a fixed point",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			if len(args) == 1 {
				inputPath = args[0]
			}

			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			var c *cache.Cache
			if cacheDir != "" {
				opened, err := cache.Open(cacheDir)
				if err != nil {
					return err
				}
				c = opened
			}

			if watch {
				if inputPath == "" {
					return fmt.Errorf("--watch requires a file argument, not stdin")
				}
				return runWatch(inputPath, outputPath, cfg, c)
			}

			return runOnce(inputPath, outputPath, cfg, c)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write result to this path instead of stdout")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a pipeline config JSON file")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "content-addressed cache directory (unset disables caching)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-run the pipeline whenever the input file changes")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

func runOnce(inputPath, outputPath string, cfg *config.Config, c *cache.Cache) error {
	source, err := readInput(inputPath)
	if err != nil {
		return err
	}

	result, err := deobf.Run(source, cfg, c)
	if err != nil {
		return err
	}
	if result.Cached {
		slog.Debug("cache hit", "input", inputPath)
	}
	for _, d := range result.Diagnostics {
		slog.Warn("diagnostic", "message", d)
	}

	return writeOutput(outputPath, result.Output)
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func writeOutput(path, content string) error {
	if path == "" {
		_, err := fmt.Print(content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
