// Package output renders scan responses as text, JSON, or SARIF.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/diffguard/diffguard/internal/service"
)

// Writer writes a scan response in a specific format.
type Writer interface {
	Write(w io.Writer, resp *service.Response) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteResponse writes the response to the specified output (file path or
// stdout).
func WriteResponse(resp *service.Response, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, resp)
}
