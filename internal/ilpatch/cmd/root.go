package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	pathpkg "path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"ilpatch/internal/export"
	"ilpatch/internal/ilpatch/log"
	"ilpatch/internal/opcodes"
	"ilpatch/internal/patch"
	"ilpatch/internal/render"
	"ilpatch/internal/ui/colorize"
	"ilpatch/internal/unpack"
)

// Config holds the options of a dump. The hidden schema command
// reflects it with --config.
type Config struct {
	Summary   bool   `json:"summary" jsonschema:"title=Summary,description=Print the container summary"`
	Tables    bool   `json:"tables" jsonschema:"title=Tables,description=Print the metadata tables"`
	Disasm    bool   `json:"disasm" jsonschema:"title=Disassembly,description=Print method bodies"`
	Methods   []int  `json:"methods,omitempty" jsonschema:"title=Methods,description=Patch method ids to disassemble"`
	Raw       bool   `json:"raw" jsonschema:"title=Raw,description=Keep full names and print raw instruction words"`
	NoColor   bool   `json:"noColor" jsonschema:"title=No Color,description=Disable styling"`
	JSON      bool   `json:"json" jsonschema:"title=JSON,description=Print the export document instead of the views"`
	Key       string `json:"key,omitempty" jsonschema:"title=Key,description=XXTEA key of an encrypted patch"`
	Signature string `json:"signature,omitempty" jsonschema:"title=Signature,description=Signature prefix of an encrypted patch"`
	Debug     bool   `json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
}

func (c Config) unpackOptions() unpack.Options {
	return unpack.Options{Key: c.Key, Signature: c.Signature}
}

// terminal describes stdout.
type terminal struct {
	TTY   bool
	Color bool
	Width int
}

func detectTerminal(noColor bool) terminal {
	t := terminal{TTY: term.IsTerminal(os.Stdout.Fd())}
	t.Color = t.TTY && !noColor && colorize.Enabled()
	if t.TTY {
		if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil {
			t.Width = w
		}
	}
	return t
}

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().String("key", "", "XXTEA key for encrypted patches")
	rootCmd.PersistentFlags().String("signature", "", "XXTEA signature prefix (requires --key)")
	rootCmd.PersistentFlags().String("pprof", "", "Serve net/http/pprof on this address")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("summary", "s", false, "Show file summary")
	rootCmd.Flags().BoolP("tables", "t", false, "Show metadata tables")
	rootCmd.Flags().BoolP("disasm", "a", false, "Show disassembly")
	rootCmd.Flags().IntSliceP("method", "m", nil, "Disassemble specific method IDs")
	rootCmd.Flags().BoolP("raw", "r", false, "Show raw hex values and untruncated names")
	rootCmd.Flags().Bool("no-color", false, "Disable colored output")
	rootCmd.Flags().BoolP("json", "j", false, "Output the container as JSON")

	rootCmd.AddCommand(graphCmd, browseCmd, findCmd, schemaCmd)
}

var rootCmd = &cobra.Command{
	Use:   "ilpatch <file>",
	Short: "IFix patch disassembler",
	Long: `ilpatch decodes IFix hot-patch containers and prints a summary,
the metadata tables and a disassembly of every patch method.`,
	Example: `
# Print everything
ilpatch patch.bytes

# Disassemble methods 3 and 7 with raw instruction words
ilpatch -r -m 3 -m 7 patch.bytes

# Decrypt a Cocos-style patch and export JSON
ilpatch --key s3cret --signature XXTEA -j patch.bytes > patch.json
  `,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		log.Setup(os.Stderr, debug)
		if addr := profileAddr(cmd); addr != "" && stopProfiler == nil {
			_, stop, err := serveProfiler(addr)
			if err != nil {
				return err
			}
			stopProfiler = stop
		}
		_, err := ResolveCwd(cmd)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFromFlags(cmd)
		path, err := pathpkg.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}
		return runDump(cmd.OutOrStdout(), path, cfg, detectTerminal(cfg.NoColor))
	},
}

func configFromFlags(cmd *cobra.Command) Config {
	var cfg Config
	flags := cmd.Flags()
	cfg.Summary, _ = flags.GetBool("summary")
	cfg.Tables, _ = flags.GetBool("tables")
	cfg.Disasm, _ = flags.GetBool("disasm")
	cfg.Methods, _ = flags.GetIntSlice("method")
	cfg.Raw, _ = flags.GetBool("raw")
	cfg.NoColor, _ = flags.GetBool("no-color")
	cfg.JSON, _ = flags.GetBool("json")
	cfg.Key, _ = flags.GetString("key")
	cfg.Signature, _ = flags.GetString("signature")
	cfg.Debug, _ = flags.GetBool("debug")
	return cfg
}

// loadContainer unpacks and decodes the file at path.
func loadContainer(path string, opts unpack.Options) (*patch.Container, error) {
	data, err := unpack.Load(path, opts)
	if err != nil {
		return nil, err
	}
	c, err := patch.Parse(data)
	if err != nil {
		var de *patch.DecodeError
		if errors.As(err, &de) {
			slog.Debug("Decode failed", "section", de.Section, "index", de.Index, "offset", de.Offset)
		}
		return nil, fmt.Errorf("parse %s: %w", pathpkg.Base(path), err)
	}
	slog.Debug("Decoded container", "file", path,
		"types", len(c.ExternTypes), "methods", len(c.Methods), "fixes", len(c.FixInfos))
	return c, nil
}

// runDump prints the selected views of the container at path. With no
// view selected it prints all three; --method alone selects the
// disassembly.
func runDump(w io.Writer, path string, cfg Config, out terminal) error {
	c, err := loadContainer(path, cfg.unpackOptions())
	if err != nil {
		return err
	}
	table := opcodes.Default()

	if cfg.JSON {
		var buf bytes.Buffer
		if err := export.Write(&buf, export.Build(c, table, cfg.Raw)); err != nil {
			return err
		}
		text := buf.String()
		if out.Color {
			if colored, err := colorize.JSON(text); err == nil {
				text = colored
			} else {
				slog.Debug("JSON highlighting failed", "error", err)
			}
		}
		_, err := io.WriteString(w, text)
		return err
	}

	if !cfg.Summary && !cfg.Tables && !cfg.Disasm && len(cfg.Methods) == 0 {
		cfg.Summary, cfg.Tables, cfg.Disasm = true, true, true
	}

	r := render.New(c, table, render.Config{
		Raw:     cfg.Raw,
		Palette: colorize.NewPalette(out.Color),
		Width:   out.Width,
	})
	if cfg.Summary {
		if out.TTY && out.Color {
			err = r.SummaryTerminal(w)
		} else {
			err = r.Summary(w)
		}
		if err != nil {
			return err
		}
	}
	if cfg.Tables {
		if err := r.Tables(w); err != nil {
			return err
		}
	}
	if cfg.Disasm || len(cfg.Methods) > 0 {
		return r.Code(w, cfg.Methods...)
	}
	return nil
}

// Execute runs the root command. Styled output through fang is used only
// when stdout is a terminal.
var stopProfiler func() error

// Execute runs the root command and returns the process exit code. Fang
// renders help and errors when stdout is a terminal.
func Execute(ctx context.Context) int {
	defer func() {
		if stopProfiler != nil {
			_ = stopProfiler()
		}
	}()
	var err error
	if term.IsTerminal(os.Stdout.Fd()) {
		err = fang.Execute(ctx, rootCmd, fang.WithNotifySignal(os.Interrupt))
	} else {
		err = rootCmd.ExecuteContext(ctx)
	}
	if err != nil {
		return 1
	}
	return 0
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		if err := os.Chdir(cwd); err != nil {
			return "", fmt.Errorf("failed to change directory: %w", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return cwd, nil
}
