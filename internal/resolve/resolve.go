// Package resolve locates the seed geometry file for a species.
package resolve

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
)

var (
	// ErrPathNotFound means a non-empty xyz path matched neither a file nor a
	// directory. The species run must stop.
	ErrPathNotFound = eris.New("xyz path not found")

	// ErrNoXYZInDir means the xyz path named a directory without any *.xyz
	// file. The species run continues without a seed geometry.
	ErrNoXYZInDir = eris.New("xyz file not found in directory")
)

// Rule identifies which lookup produced a Resolution.
type Rule int

const (
	RuleNone Rule = iota
	RuleFile
	RuleSpeciesFile
	RuleDir
	RuleSpeciesDir
)

func (r Rule) String() string {
	switch r {
	case RuleFile:
		return "file"
	case RuleSpeciesFile:
		return "species_file"
	case RuleDir:
		return "dir"
	case RuleSpeciesDir:
		return "species_dir"
	default:
		return "none"
	}
}

// Resolution is the outcome of a successful lookup. File is empty when no
// xyz path was requested.
type Resolution struct {
	File string
	Dir  string // directory searched by rules 3 and 4
	Rule Rule
}

// Found reports whether a geometry file was resolved.
func (r Resolution) Found() bool { return r.File != "" }

// XYZ finds the geometry file for a species. The first matching rule wins:
//
//  1. xyzpath is a readable file
//  2. speciesDir/xyzpath is a readable file
//  3. xyzpath is a directory: its first *.xyz file
//  4. speciesDir/xyzpath is a directory: its first *.xyz file
//
// Rules 2 and 4 apply only to a relative xyzpath. "First" is lexical
// file-name order. A matched directory without *.xyz files yields
// ErrNoXYZInDir; nothing existing at either location yields
// ErrPathNotFound.
func XYZ(speciesDir, xyzpath string) (Resolution, error) {
	if xyzpath == "" {
		return Resolution{}, nil
	}
	var joined string
	if !filepath.IsAbs(xyzpath) {
		joined = filepath.Join(speciesDir, xyzpath)
	}

	if isReadableFile(xyzpath) {
		return Resolution{File: xyzpath, Rule: RuleFile}, nil
	}
	if joined != "" && isReadableFile(joined) {
		return Resolution{File: joined, Rule: RuleSpeciesFile}, nil
	}
	if isDir(xyzpath) {
		return firstXYZ(xyzpath, RuleDir)
	}
	if joined != "" && isDir(joined) {
		return firstXYZ(joined, RuleSpeciesDir)
	}
	return Resolution{}, eris.Wrapf(ErrPathNotFound, "resolve: %s", xyzpath)
}

func firstXYZ(dir string, rule Rule) (Resolution, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.xyz"))
	if err != nil {
		return Resolution{}, eris.Wrapf(err, "resolve: glob %s", dir)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if isReadableFile(m) {
			return Resolution{File: m, Dir: dir, Rule: rule}, nil
		}
	}
	return Resolution{Dir: dir, Rule: rule}, eris.Wrapf(ErrNoXYZInDir, "resolve: %s", dir)
}

func isReadableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
