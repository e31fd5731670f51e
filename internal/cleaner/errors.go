package cleaner

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
)

var (
	// ErrEmptyKeepSet is returned when a selection would keep no file of a group
	ErrEmptyKeepSet = errors.New("at least one file must be kept")
	// ErrInvalidSelection is returned for indices outside the group
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrFileChanged marks a file that no longer matches its scanned state
	ErrFileChanged = errors.New("file changed since scan")
	// ErrNoSurvivor marks deletions refused because no kept copy is intact
	ErrNoSurvivor = errors.New("no kept copy is still intact")
)

// ErrorReason categorizes why a deletion failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorIsDirectory
	ErrorInvalidPath
	ErrorChanged
	ErrorNoSurvivor
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorIsDirectory:
		return "Is a directory"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorChanged:
		return "File changed"
	case ErrorNoSurvivor:
		return "No surviving copy"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// DeletionError represents a detailed deletion error
type DeletionError struct {
	Path      string
	Reason    ErrorReason
	Original  error
	Retryable bool
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

// Unwrap exposes the underlying error to errors.Is and errors.As
func (e *DeletionError) Unwrap() error {
	return e.Original
}

// UserMessage returns a user-friendly error message
func (e *DeletionError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		return fmt.Sprintf("⚠️  Permission denied: %s", e.Path)
	case ErrorFileInUse:
		return fmt.Sprintf("⚠️  File is being used: %s (close the application and try again)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("ℹ️  Already gone: %s", e.Path)
	case ErrorIsDirectory:
		return fmt.Sprintf("⚠️  Path became a directory: %s", e.Path)
	case ErrorInvalidPath:
		return fmt.Sprintf("❌ Invalid or unsafe path: %s", e.Path)
	case ErrorChanged:
		return fmt.Sprintf("⚠️  Changed since scan, left untouched: %s", e.Path)
	case ErrorNoSurvivor:
		return fmt.Sprintf("⚠️  Kept copy missing or changed, not deleting: %s", e.Path)
	default:
		return fmt.Sprintf("❌ Error deleting %s: %v", e.Path, e.Original)
	}
}

// CategorizeError analyzes an error and returns a categorized DeletionError
func CategorizeError(path string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	delErr := &DeletionError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	switch {
	case errors.Is(err, ErrFileChanged):
		delErr.Reason = ErrorChanged
		return delErr
	case errors.Is(err, ErrNoSurvivor):
		delErr.Reason = ErrorNoSurvivor
		return delErr
	case errors.Is(err, os.ErrNotExist):
		delErr.Reason = ErrorFileNotFound
		return delErr
	case errors.Is(err, os.ErrPermission):
		delErr.Reason = ErrorPermissionDenied
		return delErr
	}

	// Check syscall errors
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			delErr.Reason = ErrorPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			delErr.Reason = ErrorFileInUse
			delErr.Retryable = true
		case syscall.ENOENT:
			delErr.Reason = ErrorFileNotFound
		case syscall.EISDIR:
			delErr.Reason = ErrorIsDirectory
		}
	}

	return delErr
}

// GroupErrors groups deletion errors by reason
func GroupErrors(errors []*DeletionError) map[ErrorReason][]*DeletionError {
	grouped := make(map[ErrorReason][]*DeletionError)
	for _, err := range errors {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}

// FormatErrorSummary creates a user-friendly summary of errors
func FormatErrorSummary(errors []*DeletionError) string {
	if len(errors) == 0 {
		return ""
	}

	grouped := GroupErrors(errors)
	var lines []string

	if perms, ok := grouped[ErrorPermissionDenied]; ok {
		lines = append(lines,
			fmt.Sprintf("Permission denied: %d files", len(perms)),
			"└─ Tip: check ownership of the containing directory")
	}
	if busy, ok := grouped[ErrorFileInUse]; ok {
		lines = append(lines,
			fmt.Sprintf("File in use: %d files", len(busy)),
			"└─ Tip: Close applications and retry")
	}
	if changed, ok := grouped[ErrorChanged]; ok {
		lines = append(lines,
			fmt.Sprintf("Changed since scan: %d files", len(changed)),
			"└─ Tip: rescan before deleting")
	}
	if orphans, ok := grouped[ErrorNoSurvivor]; ok {
		lines = append(lines, fmt.Sprintf("Protected last copies: %d files", len(orphans)))
	}
	if notFound, ok := grouped[ErrorFileNotFound]; ok {
		lines = append(lines, fmt.Sprintf("Already gone: %d files", len(notFound)))
	}
	if invalid, ok := grouped[ErrorInvalidPath]; ok {
		lines = append(lines, fmt.Sprintf("Unsafe paths refused: %d files", len(invalid)))
	}
	if dirs, ok := grouped[ErrorIsDirectory]; ok {
		lines = append(lines, fmt.Sprintf("Became directories: %d items", len(dirs)))
	}
	if unknown, ok := grouped[ErrorUnknown]; ok {
		lines = append(lines, fmt.Sprintf("Other errors: %d files", len(unknown)))
	}

	var b strings.Builder
	b.WriteString("\n⚠️  Issues encountered:\n")
	for i, line := range lines {
		prefix := "├─ "
		if strings.HasPrefix(line, "└─") {
			prefix = "│  "
		} else if i == len(lines)-1 {
			prefix = "└─ "
		}
		b.WriteString("   " + prefix + line + "\n")
	}
	return b.String()
}
