package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/qtc/internal/config"
	"github.com/sells-group/qtc/internal/model"
	"github.com/sells-group/qtc/internal/pipeline"
	"github.com/sells-group/qtc/internal/qc"
	"github.com/sells-group/qtc/internal/species"
	"github.com/sells-group/qtc/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline for a list of species",
	Long: `Runs QC, log parsing and thermochemistry for each species in the input list.

The input is a file with one SMILES or InChI per line, or a comma-separated
list of identifiers. Stages are enabled with -Q (run QC), -P (parse QC log)
and -T (write NASA polynomials).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		start := time.Now()

		if err := applyRunFlags(cmd, cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		input, _ := cmd.Flags().GetString("input")
		first, _ := cmd.Flags().GetInt("first")
		last, _ := cmd.Flags().GetInt("last")
		ids, err := loadSpecies(input, first, last)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return eris.Errorf("no species in %q", input)
		}

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		resolver := species.NewLocalResolver(cfg.QTC.Root, cfg.QTC.Executables.OBabel)
		exec := qc.NewExec(qc.WithLaunchRate(cfg.Batch.LaunchRate, cfg.Batch.LaunchBurst))
		p := pipeline.New(cfg, st, resolver, exec)

		printHeader(os.Stdout, p.Config(), cfg.Batch.NProc, len(ids))

		results, err := p.RunBatch(ctx, ids, cfg.Batch.NProc)
		printSummary(os.Stdout, results, time.Since(start))
		if err != nil {
			return err
		}

		zap.L().Info("run complete",
			zap.Int("species", len(results)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("input", "i", "qclist.txt", "list file, or comma-separated SMILES/InChI")
	f.IntP("first", "f", 0, "beginning index of the species list")
	f.IntP("last", "l", 0, "ending index of the species list (0 = end)")
	f.IntP("nproc", "n", 1, "number of species run concurrently")
	f.StringP("qcpackage", "p", "", "QC package (nwchem, molpro, mopac, gaussian, extrapolation, qcscript)")
	f.StringP("qctemplate", "t", "", "QC input template")
	f.StringP("qcdirectory", "d", "", "subdirectory of the species directory to run QC in")
	f.StringP("qcexe", "e", "", "QC executable, defaults to the one configured for the package")
	f.StringP("xyzpath", "x", "", "seed geometry file or directory")
	f.String("root", ".", "root of the species directory tree")
	f.BoolP("runqc", "Q", false, "run the QC package")
	f.BoolP("parseqc", "P", false, "parse the QC log")
	f.BoolP("runthermo", "T", false, "write NASA polynomials")
	f.BoolP("writefiles", "W", false, "write .xyz and .ene files from the QC log (implies -P)")
	f.BoolP("overwrite", "O", false, "rerun QC even when the log exists")
	f.BoolP("anharmonic", "A", false, "apply the anharmonic ZPE correction")
	f.Bool("strict", false, "abort the batch on an unsupported QC package")
	f.Bool("archive", false, "compress QC logs after parsing")
	f.String("mopac", "", "path to the mopac executable")
	f.String("nwchem", "", "path to the nwchem executable")
	f.String("molpro", "", "path to the molpro executable")
	f.String("gaussian", "", "path to the gaussian executable")
	f.String("qcscript", "", "path to the qcscript")
	f.String("store", "", "run store driver (sqlite, postgres, none)")
}

// applyRunFlags copies explicitly set flags over the loaded config, so the
// config file and environment supply everything left unset.
func applyRunFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	q := &c.QTC

	strs := map[string]*string{
		"qcpackage":   &q.QCPackage,
		"qctemplate":  &q.QCTemplate,
		"qcdirectory": &q.QCDirectory,
		"qcexe":       &q.QCExe,
		"xyzpath":     &q.XYZPath,
		"root":        &q.Root,
		"mopac":       &q.Executables.Mopac,
		"nwchem":      &q.Executables.NWChem,
		"molpro":      &q.Executables.Molpro,
		"gaussian":    &q.Executables.Gaussian,
		"qcscript":    &q.Executables.QCScript,
		"store":       &c.Store.Driver,
	}
	for name, dst := range strs {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetString(name)
		if err != nil {
			return eris.Wrapf(err, "flag --%s", name)
		}
		*dst = v
	}

	bools := map[string]*bool{
		"runqc":      &q.RunQC,
		"parseqc":    &q.ParseQC,
		"runthermo":  &q.RunThermo,
		"writefiles": &q.WriteFiles,
		"overwrite":  &q.Overwrite,
		"anharmonic": &q.Anharmonic,
		"strict":     &q.Strict,
		"archive":    &q.ArchiveLogs,
	}
	for name, dst := range bools {
		if !f.Changed(name) {
			continue
		}
		v, err := f.GetBool(name)
		if err != nil {
			return eris.Wrapf(err, "flag --%s", name)
		}
		*dst = v
	}

	if f.Changed("nproc") {
		n, err := f.GetInt("nproc")
		if err != nil {
			return eris.Wrap(err, "flag --nproc")
		}
		c.Batch.NProc = n
	}
	return nil
}

func printHeader(w io.Writer, q config.QTCConfig, nproc, n int) {
	host, _ := os.Hostname()
	_, _ = fmt.Fprintf(w, "QTC: Date and time           = %s\n", time.Now().Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(w, "QTC: Number of processes     = %d\n", nproc)
	_, _ = fmt.Fprintf(w, "QTC: Hostname                = %s\n", host)
	_, _ = fmt.Fprintf(w, "QTC: QC package              = %s\n", q.QCPackage)
	_, _ = fmt.Fprintf(w, "QTC: Stages                  = runqc=%t parseqc=%t runthermo=%t anharmonic=%t\n",
		q.RunQC, q.ParseQC, q.RunThermo, q.Anharmonic)
	_, _ = fmt.Fprintf(w, "QTC: Number of species       = %d\n", n)
}

func printSummary(w io.Writer, results []model.SpeciesResult, elapsed time.Duration) {
	var failed []string
	for _, r := range results {
		if r.Failed() {
			failed = append(failed, r.Identifier)
		}
	}
	_, _ = fmt.Fprintf(w, "QTC: Species complete        = %d\n", len(results)-len(failed))
	_, _ = fmt.Fprintf(w, "QTC: Species failed          = %d\n", len(failed))
	for _, id := range failed {
		_, _ = fmt.Fprintf(w, "                              %s\n", id)
	}
	_, _ = fmt.Fprintf(w, "QTC: Total time (s)          = %.2f\n", elapsed.Seconds())
}
