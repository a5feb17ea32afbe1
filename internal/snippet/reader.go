// Package snippet reads a bounded window of source text around a
// 1-based target line, with encoding and line-ending detection.
// Symlinks, oversized files, and known credential-bearing filenames
// are skipped.
package snippet

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"github.com/tsugix/tsugix/internal/model"
)

const maxFileSize = 10 * 1024 * 1024 // 10 MiB guard

// sensitivePatterns lists filenames that commonly hold credentials;
// snippets are never read from them.
var sensitivePatterns = []string{
	".env", "credentials.json", "secrets.json", "secrets.yaml", "secrets.yml",
	".netrc", ".npmrc", ".pypirc", "id_rsa", "id_ed25519", "id_ecdsa", "id_dsa",
	".pem", ".key", ".p12", ".pfx", "htpasswd", "shadow", "passwd",
}

func isSensitive(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".env") {
		return true
	}
	for _, p := range sensitivePatterns {
		if base == p {
			return true
		}
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".pem", ".key", ".p12", ".pfx":
		return true
	}
	return false
}

// ReadContext reads a window of window lines above and below errorLine
// (1-based) from path, resolving relative paths against workingDir. It
// returns nil on any failure; I/O errors never propagate to the caller.
func ReadContext(path string, workingDir string, errorLine int, window int) *model.SourceSnippet {
	if path == "" || errorLine <= 0 || window <= 0 {
		return nil
	}

	resolved := path
	if !filepath.IsAbs(resolved) && workingDir != "" {
		joined := filepath.Join(workingDir, resolved)
		if _, err := os.Stat(joined); err == nil {
			resolved = joined
		}
	}

	if isSensitive(resolved) {
		return nil
	}

	info, err := os.Lstat(resolved)
	if err != nil || info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
		return nil
	}
	if info.Size() > maxFileSize {
		return nil
	}

	raw, err := os.ReadFile(resolved) // #nosec G304 -- path validated above
	if err != nil {
		return nil
	}

	text, err := decode(raw)
	if err != nil {
		return nil
	}

	lines := splitLines(text)
	total := len(lines)
	if total == 0 || errorLine > total {
		return nil
	}

	start := errorLine - window
	end := errorLine + window
	if start < 1 {
		// Extend the high end to compensate for the clamp, up to 1+2*window.
		deficit := 1 - start
		start = 1
		end = min(total, end+deficit)
	}
	if end > total {
		deficit := end - total
		end = total
		start = max(1, start-deficit)
	}
	if start < 1 {
		start = 1
	}
	if end > total {
		end = total
	}

	out := &model.SourceSnippet{
		FilePath:  resolved,
		StartLine: start,
		EndLine:   end,
		ErrorLine: errorLine,
	}
	for n := start; n <= end; n++ {
		out.Lines = append(out.Lines, model.SourceLine{
			Number:      n,
			Text:        lines[n-1],
			IsErrorLine: n == errorLine,
		})
	}
	return out
}

// splitLines splits on \r\n, \r, or \n and returns a 1-based-friendly
// slice (index 0 is line 1).
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	// A trailing newline produces one spurious empty final element; drop it
	// unless the file is genuinely a single empty line.
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// decode strips a BOM if present and returns UTF-8 text. Supported BOMs:
// UTF-8, UTF-16LE, UTF-16BE, UTF-32BE. Absent a BOM, the bytes are
// assumed to already be UTF-8.
func decode(raw []byte) (string, error) {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return string(raw[3:]), nil
	case bytes.HasPrefix(raw, []byte{0x00, 0x00, 0xFE, 0xFF}):
		return decodeUTF32BE(raw[4:]), nil
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		return decodeUTF16(raw[2:], true), nil
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		return decodeUTF16(raw[2:], false), nil
	default:
		return string(raw), nil
	}
}

func decodeUTF16(b []byte, little bool) string {
	n := len(b) / 2
	u16 := make([]uint16, n)
	for i := 0; i < n; i++ {
		if little {
			u16[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
		} else {
			u16[i] = uint16(b[2*i+1]) | uint16(b[2*i])<<8
		}
	}
	return string(utf16.Decode(u16))
}

func decodeUTF32BE(b []byte) string {
	n := len(b) / 4
	runes := make([]rune, 0, n)
	for i := 0; i < n; i++ {
		r := rune(b[4*i])<<24 | rune(b[4*i+1])<<16 | rune(b[4*i+2])<<8 | rune(b[4*i+3])
		runes = append(runes, r)
	}
	return string(runes)
}
