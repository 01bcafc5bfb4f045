package flow

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"ilpatch/internal/disasm"
	"ilpatch/internal/opcodes"
)

// FuncName names a patch method in graphs.
func FuncName(l disasm.Listing) string {
	if l.Target == "" {
		return fmt.Sprintf("method_%02d", l.ID)
	}
	return fmt.Sprintf("method_%02d %s", l.ID, l.Target)
}

// CallGraph links every listing to the methods, constructors and
// function pointers it references.
func CallGraph(listings []disasm.Listing) *lattice.Graph {
	g := &lattice.Graph{}
	for _, l := range listings {
		caller := FuncName(l)
		g.Nodes = append(g.Nodes, caller)
		for _, line := range l.Lines {
			if line.Unknown || line.Op.Flow != opcodes.FlowCall || line.Text == "" {
				continue
			}
			g.Edges = append(g.Edges, lattice.Edge{Caller: caller, Callee: line.Text})
		}
	}
	g.Dedup()
	return g
}

// DOT renders a single method CFG.
func DOT(g *CFG) string {
	return render.DOTCFG(&lattice.CFGGraph{Funcs: []*lattice.FuncCFG{g.Lattice()}}, g.Name)
}

// Result summarizes an Export.
type Result struct {
	CFGs  []string // written CFG files
	Graph string   // call graph file
	Nodes int
	Edges int
}

// Export writes cfg/method_NN.dot for every listing with more than one
// block and callgraph.dot into dir.
func Export(dir string, listings []disasm.Listing) (Result, error) {
	var res Result
	cfgDir := filepath.Join(dir, "cfg")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return res, fmt.Errorf("mkdir cfg: %w", err)
	}

	for _, l := range listings {
		g := Build(FuncName(l), l.Lines, l.Handlers)
		if len(g.Blocks) <= 1 {
			continue
		}
		path := filepath.Join(cfgDir, fmt.Sprintf("method_%02d.dot", l.ID))
		if err := os.WriteFile(path, []byte(DOT(g)), 0o644); err != nil {
			return res, fmt.Errorf("write cfg dot %d: %w", l.ID, err)
		}
		res.CFGs = append(res.CFGs, path)
	}

	cg := CallGraph(listings)
	res.Graph = filepath.Join(dir, "callgraph.dot")
	if err := os.WriteFile(res.Graph, []byte(render.DOT(cg, "callgraph")), 0o644); err != nil {
		return res, fmt.Errorf("write callgraph.dot: %w", err)
	}
	res.Nodes, res.Edges = len(cg.Nodes), len(cg.Edges)
	return res, nil
}
