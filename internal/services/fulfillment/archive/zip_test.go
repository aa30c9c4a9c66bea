package archive

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestBundleOrderLayout(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	label := writeFile(t, src, "shipping_label_order-1_123.json", `{"orderId":"order-1"}`)
	sheetA := writeFile(t, src, "print_sheet_card-a_1.json", `{"occupied":20}`)
	sheetB := writeFile(t, src, "print_sheet_card-b_2.json", `{"occupied":5}`)

	builder := NewBuilder(t.TempDir())
	path, err := builder.BundleOrder(context.Background(), "order-1", label, []string{sheetA, sheetB})
	if err != nil {
		t.Fatalf("BundleOrder: %v", err)
	}
	if filepath.Base(path) != "order_order-1.zip" {
		t.Errorf("archive name = %s, want order_order-1.zip", filepath.Base(path))
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = reader.Close() }()

	var names []string
	for _, file := range reader.File {
		names = append(names, file.Name)
	}
	want := []string{
		"shipping_label_order-1.json",
		"print-sheets-order-1/print_sheet_1_order-1.json",
		"print-sheets-order-1/print_sheet_2_order-1.json",
	}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestBundleOrderNoSheets(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	label := writeFile(t, src, "shipping_label.json", `{}`)

	builder := NewBuilder(t.TempDir())
	path, err := builder.BundleOrder(context.Background(), "order-2", label, nil)
	if err != nil {
		t.Fatalf("BundleOrder: %v", err)
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = reader.Close() }()
	if len(reader.File) != 1 {
		t.Fatalf("entries = %d, want 1", len(reader.File))
	}
}

func TestBundleOrderMissingSheet(t *testing.T) {
	t.Parallel()
	src := t.TempDir()
	label := writeFile(t, src, "shipping_label.json", `{}`)

	dir := t.TempDir()
	builder := NewBuilder(dir)
	_, err := builder.BundleOrder(context.Background(), "order-3", label, []string{filepath.Join(src, "missing.json")})
	if err == nil {
		t.Fatal("expected error for missing sheet")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "order_order-3.zip")); !os.IsNotExist(statErr) {
		t.Error("partial archive was left behind")
	}
}

func TestBundleOrderRequiresOrderID(t *testing.T) {
	t.Parallel()
	builder := NewBuilder(t.TempDir())
	if _, err := builder.BundleOrder(context.Background(), "  ", "", nil); err == nil {
		t.Fatal("expected error for empty order id")
	}
}
