// Package rowcodec reads and writes the comma-delimited interchange files
// exchanged with partner file servers.
package rowcodec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Codec encodes and decodes delimited files
type Codec struct {
	delimiter rune
	trimSpace bool
	useCRLF   bool
	charset   string
}

// Option is a functional option for Codec configuration
type Option func(*Codec)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) Option {
	return func(c *Codec) {
		c.delimiter = d
	}
}

// WithTrimSpace enables trimming of leading/trailing spaces from decoded fields
func WithTrimSpace(trim bool) Option {
	return func(c *Codec) {
		c.trimSpace = trim
	}
}

// WithCRLF terminates encoded lines with \r\n
func WithCRLF(crlf bool) Option {
	return func(c *Codec) {
		c.useCRLF = crlf
	}
}

// WithCharset decodes input from the named charset (WHATWG names, e.g. "latin1",
// "windows-1252") before parsing. Empty or "utf-8" means no conversion.
func WithCharset(name string) Option {
	return func(c *Codec) {
		c.charset = name
	}
}

// New creates a codec
func New(opts ...Option) *Codec {
	c := &Codec{
		delimiter: ',',
		trimSpace: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Row is one data row with its 1-based line number in the file
type Row struct {
	LineNumber int
	Fields     []string
}

// Table is a decoded file: header labels plus positional rows
type Table struct {
	Header []string
	Rows   []Row
}

// Record maps header labels to the values of one row
type Record = map[string]string

// Encode writes header then rows with minimal quoting: a field is quoted only
// when it contains the delimiter, a quote, a line break or leading space.
func (c *Codec) Encode(header []string, rows [][]string) ([]byte, error) {
	if len(header) == 0 {
		return nil, ErrMissingHeader
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = c.delimiter
	w.UseCRLF = c.useCRLF

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, NewRowError(i+2, "", ErrCodeWidthMismatch,
				fmt.Sprintf("row has %d fields, header has %d", len(row), len(header)))
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush rows: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses data into a header and its data rows. Rows whose fields are
// all blank are skipped; a row of a different width than the header is an error.
func (c *Codec) Decode(data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	data, err := c.toUTF8(data)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = c.delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	table := &Table{Header: make([]string, len(header))}
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		label := trimSpaces(h)
		if _, dup := seen[label]; dup && label != "" {
			return nil, NewRowError(1, label, ErrCodeDuplicatedHeader, "duplicated header label")
		}
		seen[label] = struct{}{}
		table.Header[i] = label
	}
	if isBlank(table.Header) {
		return nil, ErrMissingHeader
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, NewRowError(perr.StartLine, "", ErrCodeParsing, perr.Err.Error())
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line, _ := r.FieldPos(0)
		if c.trimSpace {
			for i := range record {
				record[i] = trimSpaces(record[i])
			}
		}
		if isBlank(record) {
			continue
		}
		if len(record) != len(table.Header) {
			return nil, NewRowError(line, "", ErrCodeMalformedRow,
				fmt.Sprintf("row has %d fields, header has %d", len(record), len(table.Header)))
		}
		table.Rows = append(table.Rows, Row{LineNumber: line, Fields: record})
	}

	return table, nil
}

// DecodeRecords decodes data and zips every row with the header labels
func (c *Codec) DecodeRecords(data []byte) ([]Record, error) {
	table, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	return PrepareImportableData(table)
}

// PrepareImportableData zips header labels with each row into name-to-value records
func PrepareImportableData(table *Table) ([]Record, error) {
	if table == nil {
		return nil, ErrMissingHeader
	}
	records := make([]Record, 0, len(table.Rows))
	for _, row := range table.Rows {
		if len(row.Fields) != len(table.Header) {
			return nil, NewRowError(row.LineNumber, "", ErrCodeMalformedRow,
				fmt.Sprintf("row has %d fields, header has %d", len(row.Fields), len(table.Header)))
		}
		rec := make(Record, len(table.Header))
		for i, label := range table.Header {
			rec[label] = row.Fields[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

// RequireLabels checks that every label is present in the header
func (t *Table) RequireLabels(labels ...string) error {
	have := make(map[string]struct{}, len(t.Header))
	for _, h := range t.Header {
		have[h] = struct{}{}
	}
	var missing []string
	for _, l := range labels {
		if _, ok := have[l]; !ok {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingLabels, strings.Join(missing, ", "))
	}
	return nil
}

func (c *Codec) toUTF8(data []byte) ([]byte, error) {
	name := strings.ToLower(strings.TrimSpace(c.charset))
	if name == "" || name == "utf-8" || name == "utf8" {
		return data, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCharset, c.charset)
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return out, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if trimSpaces(f) != "" {
			return false
		}
	}
	return true
}

// trimSpaces trims ASCII whitespace from both ends
func trimSpaces(s string) string {
	return strings.Trim(s, " \t\n\r\v\f")
}
