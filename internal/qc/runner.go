package qc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/qtc/internal/model"
	"github.com/sells-group/qtc/internal/resilience"
)

// Job is one QC calculation for one species.
type Job struct {
	Package    string
	Template   string // template path; empty uses the built-in template
	Executable string
	Species    model.Species
	Dir        string // workspace directory
	NProc      int
	Overwrite  bool
}

// ScriptJob is one qcscript invocation.
type ScriptJob struct {
	Script       string
	Template     string
	GeoFile      string
	Multiplicity int
	Dir          string
}

// Runner runs a QC package and returns a progress message. A returned
// error means the program failed or produced no log.
type Runner interface {
	Run(ctx context.Context, job Job) (string, error)
}

// ScriptRunner runs a user-supplied script package.
type ScriptRunner interface {
	RunScript(ctx context.Context, job ScriptJob) (string, error)
}

// Exec launches QC programs as subprocesses. Launches are throttled by an
// optional rate limiter shared by all species and retried on transient
// start failures.
type Exec struct {
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// ExecOption configures Exec.
type ExecOption func(*Exec)

// WithLaunchRate limits launches to perSecond with the given burst. A rate
// of zero means unlimited.
func WithLaunchRate(perSecond float64, burst int) ExecOption {
	return func(e *Exec) {
		if perSecond <= 0 {
			e.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetry sets the retry policy for starting processes.
func WithRetry(cfg resilience.RetryConfig) ExecOption {
	return func(e *Exec) { e.retry = cfg }
}

// NewExec creates an Exec.
func NewExec(opts ...ExecOption) *Exec {
	e := &Exec{retry: resilience.LaunchRetryConfig()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, job Job) (string, error) {
	if !IsAvailable(job.Package) {
		return "", eris.Errorf("qc: unknown package %q", job.Package)
	}
	if !Runnable(job.Package) {
		return fmt.Sprintf("%s is not runnable, no log produced\n", job.Package), nil
	}

	sp := specs[job.Package]
	logName := job.Species.LogName(job.Package)
	logPath := filepath.Join(job.Dir, logName)
	if !job.Overwrite {
		if _, err := os.Stat(logPath); err == nil {
			return fmt.Sprintf("Skipping %s, log exists: %s\n", job.Package, logPath), nil
		}
	}

	tmpl, err := LoadTemplate(job.Template, job.Package)
	if err != nil {
		return "", err
	}
	input, err := Render(tmpl, job.Species, job.NProc)
	if err != nil {
		return "", err
	}
	inputName := InputName(logName, job.Package)
	if err := os.WriteFile(filepath.Join(job.Dir, inputName), []byte(input), 0o644); err != nil {
		return "", eris.Wrapf(err, "qc: write input %s", inputName)
	}

	args := sp.args(inputName, logName)
	var stdout *os.File
	if sp.stdout {
		stdout, err = os.Create(logPath)
		if err != nil {
			return "", eris.Wrapf(err, "qc: create log %s", logPath)
		}
		defer stdout.Close() //nolint:errcheck
	}

	out, err := e.launch(ctx, job.Species.Identifier, job.Dir, job.Executable, args, stdout)
	msg := fmt.Sprintf("Running %s: %s %s\n", job.Package, job.Executable, strings.Join(args, " "))
	if err != nil {
		if stdout != nil {
			// A failed run must not leave a log that a later run would reuse.
			stdout.Close() //nolint:errcheck
			if rerr := os.Remove(logPath); rerr != nil && !os.IsNotExist(rerr) {
				return msg, eris.Wrapf(rerr, "qc: remove partial log %s", logPath)
			}
		}
		return msg, err
	}
	if out != "" {
		msg += out
	}
	if _, err := os.Stat(logPath); err != nil {
		return msg, eris.Errorf("qc: %s produced no log %s", job.Package, logName)
	}
	return msg, nil
}

// RunScript implements ScriptRunner. The script is called as
// "<script> <template> <geofile> <multiplicity>" in the workspace.
func (e *Exec) RunScript(ctx context.Context, job ScriptJob) (string, error) {
	if job.Script == "" {
		return "", eris.New("qc: no qcscript configured")
	}
	args := []string{job.Template, job.GeoFile, strconv.Itoa(job.Multiplicity)}
	out, err := e.launch(ctx, job.GeoFile, job.Dir, job.Script, args, nil)
	msg := fmt.Sprintf("Running %s %s\n", job.Script, strings.Join(args, " ")) + out
	return msg, err
}

// waitDelay bounds how long Wait blocks on output pipes held open by
// grandchildren after the process is killed.
const waitDelay = 10 * time.Second

// launch starts exe in dir and waits for it. Stdout goes to stdout when
// non-nil and is otherwise returned; stderr is folded into the error.
func (e *Exec) launch(ctx context.Context, label, dir, exe string, args []string, stdout *os.File) (string, error) {
	path, err := exec.LookPath(exe)
	if err != nil {
		return "", eris.Wrapf(err, "qc: executable %q", exe)
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "qc: launch throttle")
		}
	}

	var captured, stderr bytes.Buffer
	cmd, err := resilience.DoVal(ctx, withLogger(e.retry, label, filepath.Base(exe)), func(ctx context.Context) (*exec.Cmd, error) {
		captured.Reset()
		stderr.Reset()
		c := exec.CommandContext(ctx, path, args...)
		c.Dir = dir
		c.WaitDelay = waitDelay
		c.Stderr = &stderr
		if stdout != nil {
			c.Stdout = stdout
		} else {
			c.Stdout = &captured
		}
		if err := c.Start(); err != nil {
			return nil, err
		}
		return c, nil
	})
	if err != nil {
		return "", eris.Wrapf(err, "qc: start %s", exe)
	}

	zap.L().Debug("qc: process started",
		zap.String("species", label),
		zap.String("exe", path),
		zap.Strings("args", args),
		zap.Int("pid", cmd.Process.Pid),
	)

	if err := cmd.Wait(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return captured.String(), eris.Wrapf(err, "qc: %s failed: %s", filepath.Base(exe), detail)
		}
		return captured.String(), eris.Wrapf(err, "qc: %s failed", filepath.Base(exe))
	}
	return captured.String(), nil
}

func withLogger(cfg resilience.RetryConfig, label, op string) resilience.RetryConfig {
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(label, op)
	}
	return cfg
}
