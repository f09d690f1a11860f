package qclog

import (
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/rotisserie/eris"
)

// ArchiveExt is appended to compressed logs.
const ArchiveExt = ".zst"

// Archive compresses path to path+".zst" and removes the original. It
// returns the archive path.
func Archive(path string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "qclog: open %s", path)
	}
	defer in.Close() //nolint:errcheck

	dst := path + ArchiveExt
	out, err := os.Create(dst)
	if err != nil {
		return "", eris.Wrapf(err, "qclog: create %s", dst)
	}

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		_ = out.Close()
		return "", eris.Wrap(err, "qclog: zstd writer")
	}
	if _, err := io.Copy(enc, in); err != nil {
		_ = enc.Close()
		_ = out.Close()
		return "", eris.Wrapf(err, "qclog: compress %s", path)
	}
	if err := enc.Close(); err != nil {
		_ = out.Close()
		return "", eris.Wrapf(err, "qclog: finish %s", dst)
	}
	if err := out.Close(); err != nil {
		return "", eris.Wrapf(err, "qclog: close %s", dst)
	}
	if err := os.Remove(path); err != nil {
		return dst, eris.Wrapf(err, "qclog: remove %s", path)
	}
	return dst, nil
}

// ReadLog returns the contents of path, falling back to path+".zst".
func ReadLog(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, eris.Wrapf(err, "qclog: read %s", path)
	}

	f, zerr := os.Open(path + ArchiveExt)
	if zerr != nil {
		return nil, eris.Wrapf(err, "qclog: read %s", path)
	}
	defer f.Close() //nolint:errcheck

	dec, zerr := zstd.NewReader(f)
	if zerr != nil {
		return nil, eris.Wrapf(zerr, "qclog: zstd reader %s", path+ArchiveExt)
	}
	defer dec.Close()

	data, zerr = io.ReadAll(dec)
	if zerr != nil {
		return nil, eris.Wrapf(zerr, "qclog: decompress %s", path+ArchiveExt)
	}
	return data, nil
}

// Exists reports whether path or its archive exists.
func Exists(path string) bool {
	if _, err := os.Stat(path); err == nil {
		return true
	}
	_, err := os.Stat(path + ArchiveExt)
	return err == nil
}
