package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "salespulse/internal/errors"
)

// Upload rejection reasons.
var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrJunkFile             = errors.New("office lock or system metadata file")
	ErrEmptyFile            = errors.New("file is empty")
	ErrFileTooLarge         = errors.New("file exceeds the upload size limit")
)

// SpreadsheetExtensions are the extensions the workbook reader understands.
var SpreadsheetExtensions = []string{".xlsx", ".xlsm", ".xls", ".csv"}

// FileValidator checks uploaded and local spreadsheet files before parsing.
type FileValidator struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewFileValidator creates a validator. maxBytes <= 0 disables the size check.
func NewFileValidator(maxBytes int64, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateUpload rejects a single file by name and size. The error is
// file-scoped: the rest of the batch still runs.
func (v *FileValidator) ValidateUpload(name string, size int64) error {
	base := filepath.Base(name)

	var cause error
	switch {
	case IsJunkFile(base):
		cause = ErrJunkFile
	case !HasSpreadsheetExtension(base):
		cause = fmt.Errorf("%w: %q", ErrUnsupportedExtension, filepath.Ext(base))
	case size == 0:
		cause = ErrEmptyFile
	case v.maxBytes > 0 && size > v.maxBytes:
		cause = fmt.Errorf("%w (%d > %d bytes)", ErrFileTooLarge, size, v.maxBytes)
	default:
		return nil
	}

	v.logger.Warn("upload rejected",
		slog.String("file", name),
		slog.Int64("size", size),
		slog.String("reason", cause.Error()))
	return apperrors.NewAppValidationError("file rejected", cause).WithField("file", name)
}

// ValidateFile checks that a local path exists, is a regular file and is
// readable.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("file does not exist", slog.String("file", path))
		return apperrors.NewNotFoundError(path, err)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()
	return nil
}

// CollectInputs expands command-line arguments into spreadsheet files.
// Directories contribute their spreadsheet files (not recursively) in name
// order; junk files inside them are skipped silently. Files named directly
// are returned as given.
func (v *FileValidator) CollectInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, apperrors.NewNotFoundError(arg, err)
			}
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
		}
		var found []string
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || IsJunkFile(name) || !HasSpreadsheetExtension(name) {
				continue
			}
			found = append(found, filepath.Join(arg, name))
		}
		sort.Strings(found)

		if len(found) == 0 {
			v.logger.Warn("no spreadsheet files in directory", slog.String("directory", arg))
		} else {
			v.logger.Info("input directory scanned",
				slog.String("directory", arg),
				slog.Int("files_found", len(found)))
		}
		files = append(files, found...)
	}
	return files, nil
}

// ValidateOutputDirectory creates dir if needed and checks it is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	tmp.Close()
	os.Remove(tmp.Name())
	return nil
}

// HasSpreadsheetExtension reports whether name ends in a supported extension.
func HasSpreadsheetExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range SpreadsheetExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// IsJunkFile reports Office lock files (~$name.xlsx) and macOS metadata
// (._name, .DS_Store).
func IsJunkFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, "~$") ||
		strings.HasPrefix(base, "._") ||
		base == ".DS_Store"
}
