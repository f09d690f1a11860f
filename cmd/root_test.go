package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "runs", "groups", "parse"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "qtc", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Shorthands(t *testing.T) {
	shorthands := map[string]string{
		"input": "i", "first": "f", "last": "l", "nproc": "n",
		"qcpackage": "p", "qctemplate": "t", "qcdirectory": "d", "qcexe": "e",
		"xyzpath": "x", "runqc": "Q", "parseqc": "P", "runthermo": "T",
		"writefiles": "W", "overwrite": "O", "anharmonic": "A",
	}
	for name, short := range shorthands {
		flag := runCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "run should have --%s", name)
		assert.Equal(t, short, flag.Shorthand, "--%s", name)
	}
	for _, name := range []string{"mopac", "nwchem", "molpro", "gaussian", "qcscript", "strict"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "run should have --%s", name)
	}
	assert.Equal(t, "qclist.txt", runCmd.Flags().Lookup("input").DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "thermo"} {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}
}
