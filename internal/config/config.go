package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	QTC    QTCConfig    `yaml:"qtc" mapstructure:"qtc"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Thermo ThermoConfig `yaml:"thermo" mapstructure:"thermo"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// QTCConfig is the per-batch pipeline configuration. It is read once and
// shared read-only by every species run.
type QTCConfig struct {
	Root        string `yaml:"root" mapstructure:"root"`
	QCPackage   string `yaml:"qcpackage" mapstructure:"qcpackage"`
	QCTemplate  string `yaml:"qctemplate" mapstructure:"qctemplate"`
	QCDirectory string `yaml:"qcdirectory" mapstructure:"qcdirectory"`
	QCExe       string `yaml:"qcexe" mapstructure:"qcexe"`
	XYZPath     string `yaml:"xyzpath" mapstructure:"xyzpath"`
	NProcQC     int    `yaml:"nproc_qc" mapstructure:"nproc_qc"`

	RunQC      bool `yaml:"runqc" mapstructure:"runqc"`
	ParseQC    bool `yaml:"parseqc" mapstructure:"parseqc"`
	RunThermo  bool `yaml:"runthermo" mapstructure:"runthermo"`
	Anharmonic bool `yaml:"anharmonic" mapstructure:"anharmonic"`
	Overwrite  bool `yaml:"overwrite" mapstructure:"overwrite"`
	WriteFiles bool `yaml:"writefiles" mapstructure:"writefiles"`

	// Strict aborts the whole batch on an unsupported QC package instead of
	// failing only the species.
	Strict      bool `yaml:"strict" mapstructure:"strict"`
	ArchiveLogs bool `yaml:"archivelogs" mapstructure:"archivelogs"`

	Executables ExecutablesConfig `yaml:"executables" mapstructure:"executables"`
}

// ExecutablesConfig holds the paths of external programs.
type ExecutablesConfig struct {
	Mopac    string `yaml:"mopac" mapstructure:"mopac"`
	NWChem   string `yaml:"nwchem" mapstructure:"nwchem"`
	Molpro   string `yaml:"molpro" mapstructure:"molpro"`
	Gaussian string `yaml:"gaussian" mapstructure:"gaussian"`
	QCScript string `yaml:"qcscript" mapstructure:"qcscript"`
	OBabel   string `yaml:"obabel" mapstructure:"obabel"`
}

// ForPackage returns the configured executable for a QC package, or "".
func (e ExecutablesConfig) ForPackage(pkg string) string {
	switch pkg {
	case "mopac":
		return e.Mopac
	case "nwchem":
		return e.NWChem
	case "molpro":
		return e.Molpro
	case "gaussian":
		return e.Gaussian
	case "qcscript":
		return e.QCScript
	default:
		return ""
	}
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	NProc       int     `yaml:"nproc" mapstructure:"nproc"`
	LaunchRate  float64 `yaml:"launch_rate" mapstructure:"launch_rate"` // QC launches per second, 0 = unlimited
	LaunchBurst int     `yaml:"launch_burst" mapstructure:"launch_burst"`
}

// ThermoConfig configures the polynomial fit.
type ThermoConfig struct {
	TMin float64 `yaml:"tmin" mapstructure:"tmin"`
	TMid float64 `yaml:"tmid" mapstructure:"tmid"`
	TMax float64 `yaml:"tmax" mapstructure:"tmax"`
	Plot bool    `yaml:"plot" mapstructure:"plot"`

	// DeltaH supplies enthalpy changes for packages whose logs carry no
	// heat of formation. A list rather than a map: viper lower-cases map
	// keys and SMILES are case sensitive.
	DeltaH []DeltaHEntry `yaml:"delta_h" mapstructure:"delta_h"`
}

// DeltaHEntry is an enthalpy change (kcal/mol) for one species identifier.
type DeltaHEntry struct {
	Species string  `yaml:"species" mapstructure:"species"`
	Value   float64 `yaml:"value" mapstructure:"value"`
}

// DeltaHFor returns the configured enthalpy change for identifier.
func (t ThermoConfig) DeltaHFor(identifier string) (float64, bool) {
	for _, e := range t.DeltaH {
		if e.Species == identifier {
			return e.Value, true
		}
	}
	return 0, false
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("qtc")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("QTC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("qtc.root", ".")
	v.SetDefault("qtc.qcdirectory", "")
	v.SetDefault("qtc.nproc_qc", 1)
	v.SetDefault("qtc.executables.mopac", "mopac")
	v.SetDefault("qtc.executables.nwchem", "nwchem")
	v.SetDefault("qtc.executables.molpro", "molpro")
	v.SetDefault("qtc.executables.gaussian", "g09")
	v.SetDefault("qtc.executables.qcscript", "")
	v.SetDefault("qtc.executables.obabel", "obabel")
	v.SetDefault("batch.nproc", 1)
	v.SetDefault("batch.launch_rate", 0)
	v.SetDefault("batch.launch_burst", 1)
	v.SetDefault("thermo.tmin", 300.0)
	v.SetDefault("thermo.tmid", 1000.0)
	v.SetDefault("thermo.tmax", 3000.0)
	v.SetDefault("thermo.plot", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "qtc.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks cross-field constraints after flags have been applied.
func (c *Config) Validate() error {
	if c.Batch.NProc < 1 {
		return eris.Errorf("config: batch.nproc must be >= 1, got %d", c.Batch.NProc)
	}
	if c.Batch.LaunchRate < 0 {
		return eris.Errorf("config: batch.launch_rate must be >= 0, got %g", c.Batch.LaunchRate)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		return eris.New("config: store.database_url is required for postgres")
	}
	if c.QTC.RunQC && c.QTC.QCPackage == "" && c.QTC.QCTemplate == "" {
		return eris.New("config: please specify a template file (-t) or a package (-p) to run qc")
	}
	if !(c.Thermo.TMin < c.Thermo.TMid && c.Thermo.TMid < c.Thermo.TMax) {
		return eris.Errorf("config: thermo temperatures must satisfy tmin < tmid < tmax, got %g/%g/%g",
			c.Thermo.TMin, c.Thermo.TMid, c.Thermo.TMax)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
