// Package commands holds the CLI actions. Each RunX function takes its collaborators
// explicitly so tests can pass mocks and buffers instead of a container.
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/allisson/secpolicy/internal/app"
)

// IOTuple is the stdin/stdout pair of a command.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

func DefaultIO() IOTuple {
	return IOTuple{Reader: os.Stdin, Writer: os.Stdout}
}

const (
	formatText = "text"
	formatJSON = "json"
)

// checkFormat accepts text, json and the empty string, which means text.
func checkFormat(format string) error {
	switch format {
	case "", formatText, formatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q: use 'text' or 'json'", format)
	}
}

// textWriter is implemented by command results that have a human-readable rendering.
type textWriter interface {
	writeText(w io.Writer)
}

// render prints result as indented JSON or through its writeText method.
func render(w io.Writer, format string, result textWriter) error {
	if format != formatJSON {
		result.writeText(w)
		return nil
	}
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}

// readLine returns the first line of r without its terminator. EOF before a newline is
// not an error.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}
