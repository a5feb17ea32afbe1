package snippet

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadContext_CentersWindow(t *testing.T) {
	dir := t.TempDir()
	lines := "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nl9\nl10\n"
	path := writeFile(t, dir, "f.txt", []byte(lines))

	snip := ReadContext(path, dir, 5, 3)
	if snip == nil {
		t.Fatal("ReadContext() = nil")
	}
	if snip.StartLine != 2 || snip.EndLine != 8 {
		t.Errorf("window = [%d,%d], want [2,8]", snip.StartLine, snip.EndLine)
	}
	count := 0
	for _, l := range snip.Lines {
		if l.IsErrorLine {
			count++
			if l.Number != 5 {
				t.Errorf("error line number = %d, want 5", l.Number)
			}
		}
	}
	if count != 1 {
		t.Errorf("IsErrorLine count = %d, want exactly 1", count)
	}
}

func TestReadContext_ClampsNearFileStart(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "f.txt", []byte("l1\nl2\nl3\nl4\nl5\n"))

	snip := ReadContext(path, dir, 1, 3)
	if snip == nil {
		t.Fatal("ReadContext() = nil")
	}
	if snip.StartLine != 1 {
		t.Errorf("StartLine = %d, want 1", snip.StartLine)
	}
	if snip.EndLine > 5 {
		t.Errorf("EndLine = %d, want <= total line count", snip.EndLine)
	}
}

func TestReadContext_SensitiveFileSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", []byte("SECRET=1\nSECRET2=2\n"))

	if snip := ReadContext(path, dir, 1, 1); snip != nil {
		t.Errorf("ReadContext() on .env = %+v, want nil", snip)
	}
}

func TestReadContext_UTF8BOMStripped(t *testing.T) {
	dir := t.TempDir()
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello\nworld\n")...)
	path := writeFile(t, dir, "bom.txt", content)

	snip := ReadContext(path, dir, 1, 1)
	if snip == nil {
		t.Fatal("ReadContext() = nil")
	}
	if snip.Lines[0].Text != "hello" {
		t.Errorf("first line = %q, want %q (no BOM bytes)", snip.Lines[0].Text, "hello")
	}
}

func TestReadContext_ErrorLineOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "f.txt", []byte("l1\nl2\n"))

	if snip := ReadContext(path, dir, 50, 3); snip != nil {
		t.Errorf("ReadContext() = %+v, want nil for out-of-range error line", snip)
	}
}
