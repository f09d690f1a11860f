package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// loadSpecies reads the identifiers named by input: a list file when one
// exists at that path, otherwise a comma-separated list. The result is
// sliced to [first:last]; last <= 0 means the end of the list.
func loadSpecies(input string, first, last int) ([]string, error) {
	var ids []string
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		ids, err = readSpeciesList(input)
		if err != nil {
			return nil, err
		}
	} else {
		for _, s := range strings.Split(input, ",") {
			if s = strings.TrimSpace(s); s != "" {
				ids = append(ids, s)
			}
		}
	}
	return sliceSpecies(ids, first, last)
}

// readSpeciesList reads the first field of each line as an identifier.
// Lines whose first field starts with # are comments. A # inside a field
// is a SMILES triple bond.
func readSpeciesList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open species list %s", path)
	}
	defer f.Close() //nolint:errcheck

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		ids = append(ids, fields[0])
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "read species list %s", path)
	}
	return ids, nil
}

func sliceSpecies(ids []string, first, last int) ([]string, error) {
	if first < 0 {
		return nil, eris.Errorf("first index must be >= 0, got %d", first)
	}
	if last <= 0 || last > len(ids) {
		last = len(ids)
	}
	if first >= last {
		return nil, nil
	}
	return ids[first:last], nil
}
