// Package source reads raw scraped records from the scraper handoff
// format: newline-delimited JSON, one RawRecord per line.
package source

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lhgjose/propfair/internal/models"
)

// Reader decodes RawRecords from an NDJSON stream. One undecodable
// line surfaces as a per-record error; the stream position advances
// past it, so the caller can keep reading.
type Reader struct {
	br   *bufio.Reader
	line int
}

// NewReader wraps r in an NDJSON record reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next returns the next record, io.EOF at end of stream, or a decode
// error for a single bad line. Blank lines are skipped.
func (r *Reader) Next() (*models.RawRecord, error) {
	for {
		raw, err := r.br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading record stream: %w", err)
		}

		r.line++

		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			if err == io.EOF {
				return nil, io.EOF
			}

			continue
		}

		var rec models.RawRecord
		if uerr := json.Unmarshal([]byte(trimmed), &rec); uerr != nil {
			return nil, fmt.Errorf("decoding record at line %d: %w", r.line, uerr)
		}

		return &rec, nil
	}
}
