package cmd

import (
	"fmt"
	"log/slog"
	pathpkg "path/filepath"

	"github.com/spf13/cobra"

	"ilpatch/internal/disasm"
	"ilpatch/internal/flow"
	"ilpatch/internal/logging"
	"ilpatch/internal/opcodes"
	"ilpatch/internal/patch"
	"ilpatch/internal/resolve"
	"ilpatch/internal/unpack"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export control-flow and call graphs as Graphviz DOT",
	Example: `
# Write cfg/method_NN.dot and callgraph.dot under ./graphs
ilpatch graph patch.bytes --out graphs

# Render one method
ilpatch graph patch.bytes -m 4 && dot -Tsvg graphs/cfg/method_04.dot -o m4.svg
  `,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		methods, _ := cmd.Flags().GetIntSlice("method")
		key, _ := cmd.Flags().GetString("key")
		signature, _ := cmd.Flags().GetString("signature")

		lg := logging.New()
		defer lg.Close()

		_, err := runGraph(lg, args[0], out, methods, unpack.Options{Key: key, Signature: signature})
		return err
	},
}

func init() {
	graphCmd.Flags().StringP("out", "o", "graphs", "Output directory")
	graphCmd.Flags().IntSliceP("method", "m", nil, "Only graph these method IDs")
}

// runGraph decodes path and writes its graphs into dir.
func runGraph(lg *logging.Logger, path, dir string, methods []int, opts unpack.Options) (flow.Result, error) {
	c, err := loadContainer(path, opts)
	if err != nil {
		return flow.Result{}, err
	}

	dis := disasm.New(opcodes.Default(), resolve.New(c, resolve.Options{}), disasm.Options{})
	listings := selectListings(c, dis, methods)
	if len(listings) == 0 {
		return flow.Result{}, fmt.Errorf("no methods to graph in %s", pathpkg.Base(path))
	}

	res, err := flow.Export(dir, listings)
	if err != nil {
		return res, err
	}
	for _, p := range res.CFGs {
		lg.Info("Wrote CFG", "path", p)
	}
	lg.Info("Wrote call graph", "path", res.Graph, "nodes", res.Nodes, "edges", res.Edges)
	return res, nil
}

func selectListings(c *patch.Container, dis *disasm.Disassembler, methods []int) []disasm.Listing {
	if len(methods) == 0 {
		out := make([]disasm.Listing, len(c.Methods))
		for i, m := range c.Methods {
			out[i] = dis.Method(i, m)
		}
		return out
	}
	var out []disasm.Listing
	for _, id := range methods {
		if id < 0 || id >= len(c.Methods) {
			slog.Warn("Method index out of range", "method", id, "methods", len(c.Methods))
			continue
		}
		out = append(out, dis.Method(id, c.Methods[id]))
	}
	return out
}
