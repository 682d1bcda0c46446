// Package source turns a byte stream into declaration lines, decoding the
// character set and refusing oversized lines.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/vk/neodes/internal/fault"
	"golang.org/x/text/encoding/charmap"
)

const (
	// DefaultMaxLineLength is the longest accepted line, in characters.
	DefaultMaxLineLength = 4096
	// PeekSize is how much of a stream is inspected to find the header.
	PeekSize = 4096
)

// Decoder returns a reader decoding r from the named charset into UTF-8.
func Decoder(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "utf-8", "utf8":
		return r, nil
	}
	return nil, fmt.Errorf("unsupported charset %q", charset)
}

// Reader yields the lines of a stream. It is not safe for concurrent use.
type Reader struct {
	sc      *bufio.Scanner
	maxLen  int
	lineNum int
	err     error
}

// NewReader creates a Reader decoding r from charset. maxLen bounds the
// number of characters per line; zero selects DefaultMaxLineLength.
func NewReader(r io.Reader, charset string, maxLen int) (*Reader, error) {
	dec, err := Decoder(r, charset)
	if err != nil {
		return nil, err
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLength
	}
	// Room for maxLen characters of up to four bytes plus the line break.
	limit := maxLen*utf8.UTFMax + 2
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, min(limit, 64*1024)), limit)
	return &Reader{sc: sc, maxLen: maxLen}, nil
}

// Lines returns the stream lines without their line breaks. Iteration stops
// at the first error, which Err then reports.
func (r *Reader) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for r.sc.Scan() {
			r.lineNum++
			line := r.sc.Text()
			if utf8.RuneCountInString(line) > r.maxLen {
				r.err = r.tooLong()
				return
			}
			if !yield(line) {
				return
			}
		}
		if err := r.sc.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				r.lineNum++
				r.err = r.tooLong()
				return
			}
			r.err = fmt.Errorf("failed to read input: %w", err)
		}
	}
}

func (r *Reader) tooLong() error {
	return fault.Format("line exceeds maximum length of %d characters", r.maxLen).AtLine(r.lineNum)
}

// Err returns the error that ended iteration, if any.
func (r *Reader) Err() error {
	return r.err
}

// Peek returns the complete lines found in the first PeekSize bytes of br
// without consuming them.
func Peek(br *bufio.Reader, charset string) ([]string, error) {
	head, err := br.Peek(PeekSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	complete := err == nil || errors.Is(err, bufio.ErrBufferFull)
	if complete {
		if i := bytes.LastIndexByte(head, '\n'); i >= 0 {
			head = head[:i+1]
		}
	}

	dec, derr := Decoder(bytes.NewReader(head), charset)
	if derr != nil {
		return nil, derr
	}
	text, rerr := io.ReadAll(dec)
	if rerr != nil {
		return nil, fmt.Errorf("failed to decode header: %w", rerr)
	}

	var lines []string
	for _, line := range strings.Split(string(text), "\n") {
		lines = append(lines, strings.TrimRight(line, "\r"))
	}
	return lines, nil
}
