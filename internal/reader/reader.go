// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package reader

import (
	"fmt"
	"io"
	"strconv"

	"nickandperla.net/losp/internal/heap"
	"nickandperla.net/losp/internal/meaning"
	"nickandperla.net/losp/internal/token"
	"nickandperla.net/losp/internal/value"
)

// Form pairs a parsed source form with the location it started at,
// matching the "(location, parse-result)" pair the core's analyzer
// consumes.
type Form struct {
	Location meaning.Location
	Value    value.Value
}

// Reader reads a sequence of top-level forms from an io.Reader.
type Reader struct {
	s    *scanner
	h    *heap.Heap
	file string

	// locations records the starting Location of every *value.Pair this
	// Reader has allocated, so Locate can answer "where did this cons cell
	// come from" for error backtraces.
	locations map[*value.Pair]meaning.Location
}

// New creates a Reader over r, interning symbols through h and attributing
// locations to file (used only for diagnostics; pass "" for anonymous
// input such as a REPL line).
func New(r io.Reader, h *heap.Heap, file string) *Reader {
	return &Reader{
		s:         newScanner(r, file),
		h:         h,
		file:      file,
		locations: make(map[*value.Pair]meaning.Location),
	}
}

// Locate maps a parsed cons cell back to the source location it was read
// from, or the unknown sentinel if p was not produced by this Reader (for
// example, a cell built programmatically by an earlier evaluation).
func (rd *Reader) Locate(p *value.Pair) meaning.Location {
	if loc, ok := rd.locations[p]; ok {
		return loc
	}
	return meaning.Unknown
}

// ReadForm reads a single top-level form. It returns io.EOF itself (not
// wrapped) once the input is exhausted.
func (rd *Reader) ReadForm() (Form, error) {
	it, err := rd.s.next()
	if err != nil {
		return Form{}, err
	}
	if it.kind == token.EOF {
		return Form{}, io.EOF
	}
	loc := Loc(rd.file, it.line, it.column)
	v, err := rd.readFrom(it)
	if err != nil {
		return Form{}, err
	}
	return Form{Location: loc, Value: v}, nil
}

// ReadAll reads every top-level form until EOF.
func (rd *Reader) ReadAll() ([]Form, error) {
	var forms []Form
	for {
		f, err := rd.ReadForm()
		if err == io.EOF {
			return forms, nil
		}
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
}

// readFrom parses the value starting at the already-consumed token it.
func (rd *Reader) readFrom(it *item) (value.Value, error) {
	switch it.kind {
	case token.LPAREN:
		return rd.readList(it)
	case token.RPAREN:
		return nil, fmt.Errorf("%d:%d: unexpected )", it.line, it.column)
	case token.QUOTE:
		next, err := rd.s.next()
		if err != nil {
			return nil, err
		}
		if next.kind == token.EOF {
			return nil, fmt.Errorf("%d:%d: unexpected EOF after '", it.line, it.column)
		}
		quoted, err := rd.readFrom(next)
		if err != nil {
			return nil, err
		}
		pair := rd.h.NewPair(quoted, value.EmptyList{})
		pair = rd.h.NewPair(rd.h.GetOrCreateSymbol("quote"), pair)
		rd.locations[pair] = Loc(rd.file, it.line, it.column)
		return pair, nil
	case token.STRING:
		return value.String(it.text), nil
	case token.BOOLEAN:
		return value.Boolean(it.text == "#t"), nil
	case token.INTEGER:
		n, err := strconv.ParseInt(it.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%d:%d: malformed integer %q", it.line, it.column, it.text)
		}
		return value.Integer(n), nil
	case token.SYMBOL:
		return rd.h.GetOrCreateSymbol(it.text), nil
	case token.EOF:
		return nil, fmt.Errorf("%d:%d: unexpected EOF", it.line, it.column)
	default:
		return nil, fmt.Errorf("%d:%d: unrecognized token", it.line, it.column)
	}
}

// readList parses the tail of a list whose opening '(' is open.
func (rd *Reader) readList(open *item) (value.Value, error) {
	var items []value.Value
	var tail value.Value = value.EmptyList{}
	for {
		it, err := rd.s.next()
		if err != nil {
			return nil, err
		}
		if it.kind == token.EOF {
			return nil, fmt.Errorf("%d:%d: unterminated list starting at %d:%d", it.line, it.column, open.line, open.column)
		}
		if it.kind == token.RPAREN {
			break
		}
		if it.kind == token.SYMBOL && it.text == "." {
			dotted, err := rd.s.next()
			if err != nil {
				return nil, err
			}
			tail, err = rd.readFrom(dotted)
			if err != nil {
				return nil, err
			}
			closeTok, err := rd.s.next()
			if err != nil {
				return nil, err
			}
			if closeTok.kind != token.RPAREN {
				return nil, fmt.Errorf("%d:%d: expected ) after dotted tail", closeTok.line, closeTok.column)
			}
			break
		}
		v, err := rd.readFrom(it)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}

	result := tail
	for i := len(items) - 1; i >= 0; i-- {
		p := rd.h.NewPair(items[i], result)
		if i == 0 {
			rd.locations[p] = Loc(rd.file, open.line, open.column)
		}
		result = p
	}
	if len(items) == 0 {
		if _, ok := tail.(value.EmptyList); ok {
			return value.EmptyList{}, nil
		}
		return tail, nil
	}
	return result, nil
}
