// Package output formats command results for the keyring CLI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pterm/pterm"
)

// Format output format.
type Format string

const (
	// FormatJSON compact JSON, the default.
	FormatJSON Format = "json"
	// FormatPretty indented JSON.
	FormatPretty Format = "pretty"
	// FormatTable aligned table.
	FormatTable Format = "table"
	// FormatText plain text.
	FormatText Format = "text"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatPretty, FormatTable, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q, want json|pretty|table|text", s)
	}
}

// Formatter writes results to the data writer and status lines to the log
// writer, so JSON on stdout stays parseable.
type Formatter struct {
	format    Format
	writer    io.Writer
	logWriter io.Writer
	silent    bool
}

// NewFormatter returns a Formatter writing data to writer, stdout when nil.
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Formatter{
		format:    format,
		writer:    writer,
		logWriter: os.Stderr,
	}
}

// SetLogWriter sets the status line writer, stderr when nil.
func (f *Formatter) SetLogWriter(writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	f.logWriter = writer
}

// SetSilent suppresses data and status output. Errors are still printed.
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Print writes data in the configured format.
func (f *Formatter) Print(data interface{}) error {
	if f.silent {
		return nil
	}
	switch f.format {
	case FormatPretty:
		return f.printJSON(data, true)
	case FormatTable:
		return f.printTable(data)
	case FormatText:
		return f.printText(data)
	default:
		return f.printJSON(data, false)
	}
}

func (f *Formatter) printJSON(data interface{}, pretty bool) error {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, string(out)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// printTable renders maps and slices of maps; anything else falls back to
// indented JSON.
func (f *Formatter) printTable(data interface{}) error {
	var rows [][]string
	switch v := data.(type) {
	case map[string]interface{}:
		rows = mapTable(v)
	case []map[string]interface{}:
		rows = mapSliceTable(v)
	case []string:
		rows = [][]string{{"#", "Value"}}
		for i, s := range v {
			rows = append(rows, []string{fmt.Sprint(i), s})
		}
	default:
		return f.printJSON(data, true)
	}
	if len(rows) <= 1 {
		return nil
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, table); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func mapTable(data map[string]interface{}) [][]string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := [][]string{{"Key", "Value"}}
	for _, k := range keys {
		rows = append(rows, []string{k, formatValue(data[k])})
	}
	return rows
}

func mapSliceTable(data []map[string]interface{}) [][]string {
	if len(data) == 0 {
		return nil
	}
	columns := extractColumns(data)
	rows := [][]string{columns}
	for _, row := range data {
		values := make([]string, len(columns))
		for i, col := range columns {
			if val, ok := row[col]; ok {
				values[i] = formatValue(val)
			} else {
				values[i] = "-"
			}
		}
		rows = append(rows, values)
	}
	return rows
}

func (f *Formatter) printText(data interface{}) error {
	var err error
	switch v := data.(type) {
	case []string:
		_, err = fmt.Fprintln(f.writer, strings.Join(v, "\n"))
	case map[string]interface{}:
		for _, row := range mapTable(v)[1:] {
			if _, err = fmt.Fprintf(f.writer, "%s: %s\n", row[0], row[1]); err != nil {
				break
			}
		}
	default:
		_, err = fmt.Fprintf(f.writer, "%v\n", data)
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// PrintSuccess writes a success line to the log writer.
func (f *Formatter) PrintSuccess(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintln(f.logWriter, pterm.Success.Sprint(message))
}

// PrintError writes err to the log writer, even in silent mode.
func (f *Formatter) PrintError(err error) {
	_, _ = fmt.Fprintln(f.logWriter, pterm.Error.Sprint(err.Error()))
}

// PrintWarning writes a warning line to the log writer.
func (f *Formatter) PrintWarning(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintln(f.logWriter, pterm.Warning.Sprint(message))
}

// PrintInfo writes an info line to the log writer.
func (f *Formatter) PrintInfo(message string) {
	if f.silent {
		return
	}
	_, _ = fmt.Fprintln(f.logWriter, pterm.Info.Sprint(message))
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case int, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case nil:
		return "-"
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// extractColumns returns column names in first-seen order.
func extractColumns(data []map[string]interface{}) []string {
	seen := make(map[string]bool)
	columns := make([]string, 0)
	for _, row := range data {
		keys := make([]string, 0, len(row))
		for key := range row {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	return columns
}

// ErrorOutput is the JSON shape of a failed command.
type ErrorOutput struct {
	Error struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// NewErrorOutput builds an ErrorOutput.
func NewErrorOutput(code string, message string, details interface{}) *ErrorOutput {
	out := &ErrorOutput{}
	out.Error.Code = code
	out.Error.Message = message
	out.Error.Details = details
	return out
}
