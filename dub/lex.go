package dub

import (
	"fmt"
	"unicode"
)

type tokenType int

const (
	typeUnknown tokenType = iota
	typeInt
	typeFloat
	typeIdentifier
	typeQuote
	typeComma
	typeColon
	typeSlash
	typeAsterisk
	typeSemicolon
	typeString
	typeLBracket
	typeRBracket
	typeLParen
	typeRParen
	typeEOF
)

const eof = -1

var simpleTokens = map[rune]tokenType{
	'\'': typeQuote,
	',':  typeComma,
	':':  typeColon,
	'/':  typeSlash,
	'*':  typeAsterisk,
	';':  typeSemicolon,
	'[':  typeLBracket,
	']':  typeRBracket,
	'(':  typeLParen,
	')':  typeRParen,
}

// token positions count runes from the start of the input.
type token struct {
	typ  tokenType
	pos  int
	text string
}

// lex splits a command line into tokens. On success the last token is
// always typeEOF.
func lex(input string) ([]token, error) {
	s := scanner{src: []rune(input)}
	var tokens []token
	for {
		t, err := s.scan()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, t)
		if t.typ == typeEOF {
			return tokens, nil
		}
	}
}

type scanner struct {
	src []rune
	off int
}

func (s *scanner) at(i int) rune {
	if i >= len(s.src) {
		return eof
	}
	return s.src[i]
}

func (s *scanner) skip(ok func(rune) bool) {
	for ok(s.at(s.off)) {
		s.off++
	}
}

func (s *scanner) emit(typ tokenType, start int) token {
	return token{typ: typ, pos: start, text: string(s.src[start:s.off])}
}

func (s *scanner) scan() (token, error) {
	s.skip(isSpace)
	start := s.off
	r := s.at(start)
	switch {
	case r == eof:
		return token{typ: typeEOF, pos: start}, nil
	case unicode.IsLetter(r):
		return s.identifier(start)
	case startsNumber(r, s.at(start+1), s.at(start+2)):
		return s.number(start)
	case r == '"':
		return s.quoted(start)
	}
	if typ, ok := simpleTokens[r]; ok {
		s.off++
		return s.emit(typ, start), nil
	}
	return token{}, invalidChar(r, start)
}

// Identifiers may contain dots and dashes so that property names like
// env.attack and preset names like lame-bass are single tokens.
func (s *scanner) identifier(start int) (token, error) {
	s.skip(func(r rune) bool {
		return unicode.IsLetter(r) || isDigit(r) || r == '_' || r == '.' || r == '-'
	})
	if r := s.at(s.off); !isDelimiter(r) {
		return token{}, invalidChar(r, s.off)
	}
	return s.emit(typeIdentifier, start), nil
}

// number reads an optionally signed integer or float. Match expressions
// put '/' and ':' directly after numbers.
func (s *scanner) number(start int) (token, error) {
	typ := typeInt
	if s.at(s.off) == '-' {
		s.off++
	}
	s.skip(isDigit)
	if s.at(s.off) == '.' {
		typ = typeFloat
		s.off++
		s.skip(isDigit)
	}
	if r := s.at(s.off); !isDelimiter(r) && r != '/' && r != ':' {
		return token{}, invalidChar(r, s.off)
	}
	return s.emit(typ, start), nil
}

func (s *scanner) quoted(start int) (token, error) {
	for s.off++; s.at(s.off) != '"'; s.off++ {
		if s.at(s.off) == eof {
			return token{}, fmt.Errorf("unterminated string at position %d", start)
		}
	}
	s.off++
	return s.emit(typeString, start), nil
}

// startsNumber reports whether r followed by next and after begins a
// number: 1, -1, .5 or -.5.
func startsNumber(r, next, after rune) bool {
	switch r {
	case '-':
		return isDigit(next) || next == '.' && isDigit(after)
	case '.':
		return isDigit(next)
	}
	return isDigit(r)
}

func isDelimiter(r rune) bool {
	switch r {
	case ' ', '\t', ',', ']', ')', eof:
		return true
	}
	return false
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func invalidChar(r rune, pos int) error {
	return fmt.Errorf("unexpected character %#U at position %d", r, pos)
}
