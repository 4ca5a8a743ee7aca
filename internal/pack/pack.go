// Package pack bundles a finalized trace into a single archive that can be
// shipped to another machine. The bundle is a gzipped tar with two top-level
// trees: METADATA/ holds the trace database and configuration, DATA/ mirrors
// the absolute paths of every traced file that still exists.
package pack

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/retracehq/retrace/internal/config"
	"github.com/retracehq/retrace/internal/log"
)

// FormatVersion is written to METADATA/version inside the bundle.
const FormatVersion = "1.0"

// DefaultTarget is the bundle filename when none is given.
const DefaultTarget = "experiment.rpz"

// Options configures bundle creation.
type Options struct {
	// Target is the output path for the bundle.
	Target string
	// DatabasePath is the finalized trace database.
	DatabasePath string
	// ConfigPath is the configuration describing what to include.
	ConfigPath string
}

// Create writes the bundle. Files listed in the configuration that have
// disappeared since the trace are logged and skipped rather than failing
// the whole pack.
func Create(opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	file, err := os.Create(opts.Target)
	if err != nil {
		return fmt.Errorf("create bundle file: %w", err)
	}
	defer file.Close()

	gw := gzip.NewWriter(file)
	defer gw.Close()

	tw := tar.NewWriter(gw)
	defer tw.Close()

	if err := writeBytes(tw, "METADATA/version", []byte(FormatVersion+"\n")); err != nil {
		return err
	}
	if err := writeFile(tw, "METADATA/"+config.FileName, opts.ConfigPath); err != nil {
		return err
	}
	if err := writeFile(tw, "METADATA/"+path.Base(opts.DatabasePath), opts.DatabasePath); err != nil {
		return err
	}

	skipped := 0
	for _, name := range cfg.OtherFiles {
		if err := writeData(tw, name); err != nil {
			if os.IsNotExist(err) {
				log.Warn("file vanished since trace, skipping", "path", name)
				skipped++
				continue
			}
			return err
		}
	}
	if skipped > 0 {
		log.Info("pack complete with missing files", "skipped", skipped)
	}

	// Flush explicitly so a close error is not silently dropped by defer.
	if err := tw.Close(); err != nil {
		return fmt.Errorf("finish tar stream: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("finish gzip stream: %w", err)
	}
	return file.Close()
}

// writeData adds one traced file under DATA/, preserving its absolute path.
// Symlinks are stored as symlinks; directories as directory entries.
func writeData(tw *tar.Writer, name string) error {
	info, err := os.Lstat(name)
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&os.ModeSymlink != 0 {
		link, err = os.Readlink(name)
		if err != nil {
			return fmt.Errorf("read symlink %s: %w", name, err)
		}
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("create tar header for %s: %w", name, err)
	}
	header.Name = "DATA" + filepath.ToSlash(name)

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header for %s: %w", name, err)
	}

	if info.Mode().IsRegular() {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(tw, f)
		f.Close()
		if copyErr != nil {
			return fmt.Errorf("copy file content %s: %w", name, copyErr)
		}
	}
	return nil
}

func writeFile(tw *tar.Writer, entry, src string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("create tar header for %s: %w", src, err)
	}
	header.Name = entry

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header for %s: %w", entry, err)
	}
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	_, copyErr := io.Copy(tw, f)
	f.Close()
	if copyErr != nil {
		return fmt.Errorf("copy %s: %w", src, copyErr)
	}
	return nil
}

func writeBytes(tw *tar.Writer, entry string, data []byte) error {
	header := &tar.Header{
		Name: entry,
		Mode: 0o644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("write tar header for %s: %w", entry, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", entry, err)
	}
	return nil
}

// FixTarget normalizes a user-supplied bundle path: an empty target becomes
// DefaultTarget, and a target without the bundle extension gets it appended.
// The returned bool reports whether the name was changed.
func FixTarget(target string) (string, bool) {
	if target == "" {
		return DefaultTarget, false
	}
	if strings.HasSuffix(target, ".rpz") {
		return target, false
	}
	return target + ".rpz", true
}
