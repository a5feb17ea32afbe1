// Package patcher applies a validated FixSuggestion's first edit to
// disk: path-safety gate, whitespace-tolerant content match,
// timestamped backup, and an atomic temp-file-and-rename write that
// preserves the file's BOM and dominant line ending.
package patcher

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tsugix/tsugix/internal/model"
)

// Options configures how Apply and Verify resolve and touch files.
type Options struct {
	RootDirectory    string // defaults to the process working directory
	AllowOutsideRoot bool
	CreateBackup     bool
	VerifyContent    bool
}

type lineEnding string

const (
	lineEndingLF   lineEnding = "\n"
	lineEndingCRLF lineEnding = "\r\n"
)

// Apply applies exactly the first edit of suggestion.Edits. Later edits
// pass validation but are not written; applying them would require
// re-matching against the post-edit file state to avoid index drift.
func Apply(suggestion *model.FixSuggestion, opts Options) model.PatchResult {
	if suggestion == nil || len(suggestion.Edits) == 0 {
		return fail("no edit to apply")
	}
	edit := suggestion.Edits[0]

	resolved, kerr := resolvePath(edit.FilePath, opts)
	if kerr != nil {
		return failKind(model.KindPathUnsafe, kerr)
	}

	raw, err := os.ReadFile(resolved) // #nosec G304 -- path validated by resolvePath
	if err != nil {
		return failKind(model.KindIOFailure, fmt.Errorf("read %s: %w", resolved, err))
	}

	originalHash := sha256.Sum256(raw)

	hadBOM, body := stripBOM(raw)
	ending := detectLineEnding(body)

	fileLines := strings.Split(normalizeNewlines(string(body)), "\n")

	idx, ok := findMatch(fileLines, edit.OriginalLines)
	if !ok {
		return failKind(model.KindContentMismatch, errors.New("original code not found"))
	}

	if opts.VerifyContent {
		current, err := os.ReadFile(resolved) // #nosec G304 -- path validated by resolvePath
		if err != nil {
			return failKind(model.KindIOFailure, fmt.Errorf("re-read %s: %w", resolved, err))
		}
		if sha256.Sum256(current) != originalHash {
			return failKind(model.KindStaleFile, errors.New("file changed during operation"))
		}
	}

	newLines := make([]string, 0, len(fileLines))
	newLines = append(newLines, fileLines[:idx]...)
	newLines = append(newLines, strings.Split(edit.Replacement, "\n")...)
	newLines = append(newLines, fileLines[idx+len(edit.OriginalLines):]...)
	newContent := strings.Join(newLines, string(ending))

	backupPath := ""
	if opts.CreateBackup {
		bp, err := writeBackup(opts.RootDirectory, resolved, raw)
		if err != nil {
			return failKind(model.KindIOFailure, fmt.Errorf("backup: %w", err))
		}
		backupPath = bp
	}

	if err := atomicWrite(resolved, newContent, hadBOM); err != nil {
		return failKind(model.KindIOFailure, err)
	}

	return model.PatchResult{Success: true, BackupPath: backupPath}
}

// Verify performs the path gate, read, and content-match steps of
// Apply without writing anything, reporting whether the fix's first
// edit still matches the file on disk.
func Verify(suggestion *model.FixSuggestion, opts Options) bool {
	if suggestion == nil || len(suggestion.Edits) == 0 {
		return false
	}
	edit := suggestion.Edits[0]

	resolved, err := resolvePath(edit.FilePath, opts)
	if err != nil {
		return false
	}

	raw, err := os.ReadFile(resolved) // #nosec G304 -- path validated by resolvePath
	if err != nil {
		return false
	}
	_, body := stripBOM(raw)
	fileLines := strings.Split(normalizeNewlines(string(body)), "\n")

	_, ok := findMatch(fileLines, edit.OriginalLines)
	return ok
}

// resolvePath implements the path-safety gate: clean, join against the
// root, and reject any resolution that escapes it unless the caller
// explicitly allows it.
func resolvePath(path string, opts Options) (string, error) {
	if path == "" {
		return "", errors.New("empty file path")
	}

	root := opts.RootDirectory
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	root = filepath.Clean(root)

	cleanPath := filepath.Clean(path)
	var absPath string
	if filepath.IsAbs(cleanPath) {
		absPath = cleanPath
	} else {
		absPath = filepath.Join(root, cleanPath)
	}

	if opts.AllowOutsideRoot {
		return absPath, nil
	}

	rel, err := filepath.Rel(root, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes root directory: %s", path)
	}

	info, err := os.Lstat(absPath)
	if err == nil && info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("refusing to write through symlink: %s", path)
	}

	return absPath, nil
}

func stripBOM(raw []byte) (hadBOM bool, body []byte) {
	if bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		return true, raw[3:]
	}
	return false, raw
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// detectLineEnding counts CRLF vs LF occurrences in the raw body; CRLF
// wins on majority or tie.
func detectLineEnding(body []byte) lineEnding {
	crlf := bytes.Count(body, []byte("\r\n"))
	totalLF := bytes.Count(body, []byte("\n"))
	lfOnly := totalLF - crlf
	if crlf >= lfOnly {
		return lineEndingCRLF
	}
	return lineEndingLF
}

// findMatch searches for the smallest index i such that every trimmed
// original line matches the corresponding trimmed file line.
func findMatch(fileLines, originalLines []string) (int, bool) {
	if len(originalLines) == 0 || len(originalLines) > len(fileLines) {
		return 0, false
	}
	for i := 0; i+len(originalLines) <= len(fileLines); i++ {
		match := true
		for j, want := range originalLines {
			if strings.TrimSpace(fileLines[i+j]) != strings.TrimSpace(want) {
				match = false
				break
			}
		}
		if match {
			return i, true
		}
	}
	return 0, false
}

// writeBackup copies the original bytes to
// <root>/.tsugix/backup/<yyyymmdd_HHMMSS>/<relative-path>.
func writeBackup(root, resolvedPath string, original []byte) (string, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}

	rel, err := filepath.Rel(root, resolvedPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(resolvedPath)
	}

	stamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(root, ".tsugix", "backup", stamp, rel)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dest, original, 0o644); err != nil { // #nosec G306 -- backup mirrors source perms
		return "", err
	}
	return dest, nil
}

// atomicWrite writes content to a sibling temp file, re-emitting a BOM
// if the original had one, then fsyncs and rename-replaces over
// target. The temp file is cleaned up on any failure path.
func atomicWrite(target string, content string, hadBOM bool) error {
	dir := filepath.Dir(target)
	tmpName := filepath.Join(dir, ".tsugix.tmp."+randomHex(16))

	var buf bytes.Buffer
	if hadBOM {
		buf.Write([]byte{0xEF, 0xBB, 0xBF})
	}
	buf.WriteString(content)

	f, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G304 -- temp name is process-random
	if err != nil {
		return err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(tmpName)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpName)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failures are effectively unrecoverable; fall back to
		// a fixed suffix rather than panicking mid-write.
		return "fallback"
	}
	return hex.EncodeToString(b)
}

func fail(msg string) model.PatchResult {
	return model.PatchResult{Success: false, ErrorMessage: msg}
}

func failKind(kind model.ErrorKind, err error) model.PatchResult {
	ke := &model.KindError{Kind: kind, Err: err}
	return model.PatchResult{Success: false, ErrorMessage: ke.Error()}
}
