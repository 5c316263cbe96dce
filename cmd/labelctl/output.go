package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/effilabel/internal/roi"
)

const (
	formatText = "text"
	formatJSON = "json"
)

var printer = message.NewPrinter(language.English)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want %s or %s)", format, formatText, formatJSON)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInputFile decodes a YAML or JSON file, chosen by extension
func readInputFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, out)
	default:
		err = yaml.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func formatBreakEven(b roi.BreakEven) string {
	if b.Never {
		return "never"
	}
	return printer.Sprintf("%d inferences", b.Inferences)
}

func formatPercent(v float64) string {
	return printer.Sprintf("%.2f%%", v*100)
}
