package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Format represents output format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json or yaml)", s)
	}
}

// Printer handles formatted output
type Printer struct {
	Format Format
	Writer io.Writer
}

// NewPrinter creates a printer writing to w, or to stdout when w is nil.
func NewPrinter(format Format, w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		Format: format,
		Writer: w,
	}
}

// Print outputs data in the configured format
func (p *Printer) Print(data any) error {
	switch p.Format {
	case FormatJSON:
		return p.printJSON(data)
	case FormatYAML:
		return p.printYAML(data)
	default:
		return fmt.Errorf("unknown output format %q", p.Format)
	}
}

func (p *Printer) printJSON(data any) error {
	encoder := json.NewEncoder(p.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func (p *Printer) printYAML(data any) error {
	encoder := yaml.NewEncoder(p.Writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}
