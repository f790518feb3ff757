package dub

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (Array) isNode()      {}
func (Tuple) isNode()      {}
func (MatchExpr) isNode()  {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string

// Array is a bracketed list: [1 2 3]. Commas between items are optional.
type Array []Node

// Tuple is a parenthesized list: (60 64 67).
type Tuple []Node

// MatchExpr selects steps of a bar, see EvalMatchExpr. It is introduced by a
// quote and extends to the end of the command.
type MatchExpr struct {
	matchers []matchItem
}

// Number returns the value of an Int or Float node.
func Number(n Node) (float64, bool) {
	switch v := n.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	}
	return 0, false
}

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) peek() token {
	t := p.next()
	p.pos--
	return t
}

func (p *parser) backup() {
	p.pos--
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		if token.typ == typeQuote {
			matchExpr, err := p.matchExpr(p.next())
			if err != nil {
				return cmd, err
			}
			cmd.Args = append(cmd.Args, matchExpr)
			continue
		}
		arg, err := p.value(token)
		if err != nil {
			return cmd, err
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func (p *parser) value(token token) (Node, error) {
	switch token.typ {
	case typeIdentifier:
		return Identifier(token.text), nil
	case typeString:
		return String(token.text[1 : len(token.text)-1]), nil
	case typeFloat:
		f, err := strconv.ParseFloat(token.text, 64)
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case typeInt:
		n, err := strconv.Atoi(token.text)
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case typeLBracket:
		items, err := p.list(typeRBracket)
		return Array(items), err
	case typeLParen:
		items, err := p.list(typeRParen)
		return Tuple(items), err
	default:
		return nil, unexpected(token)
	}
}

// list parses values up to the closing token end.
func (p *parser) list(end tokenType) ([]Node, error) {
	items := []Node{}
	for token := p.next(); token.typ != end; token = p.next() {
		switch token.typ {
		case typeComma:
			continue
		case typeEOF:
			return nil, fmt.Errorf("unexpected end of input, missing %s", closing(end))
		}
		item, err := p.value(token)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func closing(t tokenType) string {
	if t == typeRParen {
		return "')'"
	}
	return "']'"
}

func (p *parser) matchExpr(start token) (MatchExpr, error) {
	match := MatchExpr{}
	current := matchItem{}

	for token := start; token.typ != typeEOF; token = p.next() {
		switch token.typ {
		case typeInt:
			switch next := p.peek(); next.typ {
			case typeComma, typeSlash, typeEOF:
				list, err := p.listMatch(token)
				if err != nil {
					return match, err
				}
				current.matcher = list
			case typeColon:
				p.next()
				start, err := strconv.Atoi(token.text)
				if err != nil {
					return match, err
				}
				t := p.next()
				if t.typ != typeInt {
					return match, unexpected(t)
				}
				end, err := strconv.Atoi(t.text)
				if err != nil {
					return match, err
				}
				current.matcher = rangeMatch{start: start, end: end}
			default:
				return match, unexpected(next)
			}
		case typeAsterisk:
			current.matcher = matchAll
		default:
			return match, unexpected(token)
		}

		if p.peek().typ == typeSlash {
			match.matchers = append(match.matchers, current)
			current = matchItem{level: current.level + 1}
			p.next()
		}
		for p.peek().typ == typeSlash {
			p.next()
			current.level++
		}
	}

	p.backup()
	if current.matcher == nil {
		return match, fmt.Errorf("incomplete match expression")
	}
	match.matchers = append(match.matchers, current)
	return match, nil
}

func (p *parser) listMatch(start token) (listMatch, error) {
	var list listMatch
	current := start
	for {
		switch current.typ {
		case typeInt:
			n, err := strconv.Atoi(current.text)
			if err != nil {
				return list, err
			}
			list = append(list, n)
		case typeComma: // ignore
		default:
			p.backup()
			if current.typ != typeEOF && current.typ != typeSlash {
				return list, unexpected(current)
			}
			return list, nil
		}
		current = p.next()
	}
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("unexpected end of input")
	}
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}
