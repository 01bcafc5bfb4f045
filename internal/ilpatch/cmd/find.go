package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"ilpatch/internal/unpack"
)

var findCmd = &cobra.Command{
	Use:   "find <dir>",
	Short: "List patch files under a directory",
	Long: `List the files under a directory that start with --signature, or,
without a signature, the files that decode cleanly as patch containers.`,
	Example: `
# Encrypted patches shipped behind a signature
ilpatch find assets --signature XXTEA

# Plain containers, top level only
ilpatch find assets -R=false
  `,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")
		key, _ := cmd.Flags().GetString("key")
		signature, _ := cmd.Flags().GetString("signature")
		return runFind(cmd.OutOrStdout(), args[0], recursive, unpack.Options{Key: key, Signature: signature})
	},
}

func init() {
	findCmd.Flags().BoolP("recursive", "R", true, "Search subdirectories")
}

// runFind prints one matching path per line.
func runFind(w io.Writer, dir string, recursive bool, opts unpack.Options) error {
	match := func(path string) bool { return decodes(path, opts) }
	if opts.Signature != "" && opts.Key == "" {
		sig := []byte(opts.Signature)
		match = func(path string) bool { return unpack.HasPrefix(path, sig) }
	}

	found, err := unpack.Find(dir, recursive, match)
	if err != nil {
		return err
	}
	for _, path := range found {
		if _, err := fmt.Fprintln(w, path); err != nil {
			return err
		}
	}
	return nil
}

// decodes reports whether path unpacks into a container with no trailing
// bytes.
func decodes(path string, opts unpack.Options) bool {
	c, err := loadContainer(path, opts)
	if err != nil {
		slog.Debug("Not a patch container", "path", path, "error", err)
		return false
	}
	return c.Trailing == 0
}
