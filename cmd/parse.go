package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/qtc/internal/pipeline"
	"github.com/sells-group/qtc/internal/qclog"
)

var parseCmd = &cobra.Command{
	Use:   "parse <logfile>",
	Short: "Parse a QC log and print what it contains",
	Long: `Parses a NWChem, Molpro, MOPAC or Gaussian log (plain or archived) and
prints a YAML summary. With --thermo it also reports which thermochemistry
inputs are present, as the pipeline would before writing a polynomial.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		write, _ := cmd.Flags().GetBool("writefiles")
		forThermo, _ := cmd.Flags().GetBool("thermo")
		anharmonic, _ := cmd.Flags().GetBool("anharmonic")
		pkg, _ := cmd.Flags().GetString("qcpackage")

		return parseLog(os.Stdout, args[0], parseOptions{
			Name:       name,
			WriteFiles: write,
			Thermo:     forThermo,
			Anharmonic: anharmonic,
			Package:    pkg,
		})
	},
}

type parseOptions struct {
	Name       string
	WriteFiles bool
	Thermo     bool
	Anharmonic bool
	Package    string
}

func parseLog(w io.Writer, path string, opts parseOptions) error {
	path = strings.TrimSuffix(path, qclog.ArchiveExt)
	if opts.Name == "" {
		opts.Name = logStem(path)
	}
	data, err := qclog.ReadLog(path)
	if err != nil {
		return err
	}
	summary, err := qclog.Parse(string(data), opts.Name)
	if err != nil {
		return err
	}
	text, err := summary.YAML()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(w, text)

	if opts.WriteFiles {
		files, err := summary.WriteFiles(filepath.Dir(path))
		if err != nil {
			return eris.Wrap(err, "parse: write files")
		}
		for _, f := range files {
			_, _ = fmt.Fprintf(w, "Wrote '%s'\n", f)
		}
	}

	if !opts.Thermo {
		return nil
	}
	pkg := opts.Package
	if pkg == "" {
		pkg = summary.Package
	}
	msg, q, err := qclog.ParseForThermo(path, pkg, opts.Anharmonic)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(w, msg)
	gate, report := pipeline.Degrade(pipeline.Gate{RunThermo: true, Anharmonic: opts.Anharmonic}, q)
	_, _ = fmt.Fprint(w, report)
	_, _ = fmt.Fprintf(w, "runthermo = %t, anharmonic = %t\n", gate.RunThermo, gate.Anharmonic)
	return nil
}

// logStem maps "<name>_<pkg>.out" (or its archive) back to <name>.
func logStem(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), qclog.ArchiveExt)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.LastIndexByte(base, '_'); i > 0 {
		return base[:i]
	}
	return base
}

func init() {
	parseCmd.Flags().String("name", "", "species name used for written files (default from the log file name)")
	parseCmd.Flags().BoolP("writefiles", "W", false, "write <name>.xyz and <name>.ene next to the log")
	parseCmd.Flags().Bool("thermo", false, "report the thermochemistry inputs found")
	parseCmd.Flags().BoolP("anharmonic", "A", false, "include anharmonic frequencies and the X matrix")
	parseCmd.Flags().StringP("qcpackage", "p", "", "package that wrote the log (default detected)")
	rootCmd.AddCommand(parseCmd)
}
