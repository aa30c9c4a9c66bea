// Package archive bundles fulfillment artifacts into zip files.
package archive

import (
	"archive/zip"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Builder writes per-order zip archives into a staging directory. The
// archive layout is fixed: the shipping label sits at the root and every
// print sheet goes under a print-sheets-<orderID>/ folder, numbered in the
// order the copies were processed.
type Builder struct {
	dir string
}

// NewBuilder returns a Builder that stages archives under dir.
func NewBuilder(dir string) *Builder {
	return &Builder{dir: dir}
}

// BundleOrder writes order_<orderID>.zip containing the shipping label and
// each print sheet, and returns the archive path. Source files are read at
// call time; a missing sheet fails the whole bundle.
func (b *Builder) BundleOrder(ctx context.Context, orderID string, shippingLabelPath string, printSheetPaths []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b == nil || strings.TrimSpace(b.dir) == "" {
		return "", fmt.Errorf("archive directory is not configured")
	}
	if strings.TrimSpace(orderID) == "" {
		return "", fmt.Errorf("order id is required")
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	archivePath := filepath.Join(b.dir, fmt.Sprintf("order_%s.zip", orderID))
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})
	err = func() error {
		if err := addEntry(zw, fmt.Sprintf("shipping_label_%s.json", orderID), shippingLabelPath); err != nil {
			return err
		}
		for i, sheetPath := range printSheetPaths {
			if err := ctx.Err(); err != nil {
				return err
			}
			name := fmt.Sprintf("print-sheets-%s/print_sheet_%d_%s.json", orderID, i+1, orderID)
			if err := addEntry(zw, name, sheetPath); err != nil {
				return err
			}
		}
		return nil
	}()
	if err != nil {
		_ = zw.Close()
		_ = out.Close()
		_ = os.Remove(archivePath)
		return "", err
	}

	if err := zw.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(archivePath)
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(archivePath)
		return "", fmt.Errorf("close archive: %w", err)
	}
	return archivePath, nil
}

func addEntry(zw *zip.Writer, name, sourcePath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(sourcePath), err)
	}
	defer func() { _ = source.Close() }()

	entry, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := io.Copy(entry, source); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	return nil
}
