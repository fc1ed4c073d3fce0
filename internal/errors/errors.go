package errors

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/streaklit/internal/logger"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Report logs err and writes it to w. It returns the process exit code the
// caller should use: 0 for a nil error, 1 otherwise.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	logger.Error("Command execution failed", "error", err)
	fmt.Fprintf(w, "%s\n", Format(err))
	return 1
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if code := Report(os.Stderr, err); code != 0 {
		os.Exit(code)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	Fatal(fmt.Errorf(format, args...))
}
