// Command depgraph prints a Graphviz DOT rendering of this module's
// dependency graph, as reported by `go mod graph`, to help keep the
// kernel core's third-party dependency surface visible as it grows.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/tools/go/packages"
)

func main() {
	out := flag.String("o", "", "write the DOT graph to this path instead of stdout")
	imports := flag.Bool("imports", false, "graph this module's own package imports instead of go mod graph")
	flag.Parse()

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "depgraph: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	bw := bufio.NewWriter(w)
	defer bw.Flush()

	if *imports {
		if err := writeImportGraph(bw); err != nil {
			fmt.Fprintf(os.Stderr, "depgraph: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := writeModGraph(bw); err != nil {
		fmt.Fprintf(os.Stderr, "depgraph: %v\n", err)
		os.Exit(1)
	}
}

func writeModGraph(bw *bufio.Writer) error {
	graph, err := exec.Command("go", "mod", "graph").Output()
	if err != nil {
		return fmt.Errorf("go mod graph: %w", err)
	}
	formatModGraph(graph, bw)
	return nil
}

// formatModGraph renders `go mod graph`'s "module@version module@version"
// line format as a DOT digraph, split out from writeModGraph so the
// rendering itself is testable without shelling out.
func formatModGraph(graph []byte, bw *bufio.Writer) {
	fmt.Fprintln(bw, "digraph illinix_deps {")
	for _, line := range bytes.Split(bytes.TrimSpace(graph), []byte{'\n'}) {
		fields := bytes.Fields(line)
		if len(fields) != 2 {
			continue
		}
		fmt.Fprintf(bw, "    %q -> %q;\n", fields[0], fields[1])
	}
	fmt.Fprintln(bw, "}")
}

// writeImportGraph loads this module's own packages and graphs which
// internal packages import which others, a finer-grained companion to
// the module-level graph above for spotting an internal layering
// violation (e.g. a device driver reaching back into internal/proc).
func writeImportGraph(bw *bufio.Writer) error {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps}
	pkgs, err := packages.Load(cfg, "github.com/EscapistArcadia/Illinix391/...")
	if err != nil {
		return fmt.Errorf("load packages: %w", err)
	}

	fmt.Fprintln(bw, "digraph illinix_imports {")
	for _, pkg := range pkgs {
		for _, imp := range pkg.Imports {
			if !bytes.Contains([]byte(imp.PkgPath), []byte("EscapistArcadia/Illinix391")) {
				continue
			}
			fmt.Fprintf(bw, "    %q -> %q;\n", pkg.PkgPath, imp.PkgPath)
		}
	}
	fmt.Fprintln(bw, "}")
	return nil
}
