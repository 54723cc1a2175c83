package gram

import (
	"fmt"

	"github.com/stewi1014/avtape/encio"
)

// ActionHandler runs implicit actions for a Parser.
type ActionHandler interface {
	// DoAction runs the action top, which has been popped from the stack.
	// input is the symbol being advanced to, or nil when actions are processed without input.
	// A non-nil result ends the advance and is returned in place of input.
	DoAction(input Symbol, top ImplicitAction) (Symbol, error)
}

// NewParser returns a Parser for the grammar root.
func NewParser(root *Root, handler ActionHandler) *Parser {
	return &Parser{
		root:    root,
		handler: handler,
		stack:   append(make([]Symbol, 0, 16), root),
	}
}

// Parser is a stack machine over a grammar.
// The root stays at the bottom of the stack, so a parser reads any number of consecutive values.
// A Parser is not safe for concurrent use, but any number of parsers can share a grammar.
type Parser struct {
	root    *Root
	handler ActionHandler
	stack   []Symbol
}

// Advance pops symbols until input is at the top of the stack, expanding productions and running
// implicit actions on the way. It returns the symbol matched, which differs from input when an action
// resolved input to another symbol.
func (p *Parser) Advance(input Symbol) (Symbol, error) {
	for {
		top, ok := p.pop()
		if !ok {
			return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("unexpected %v after the end of the grammar", input), "gram.Parser.Advance")
		}
		if top == input {
			return top, nil
		}

		switch t := top.(type) {
		case ImplicitAction:
			result, err := p.handler.DoAction(input, t)
			if err != nil {
				return nil, err
			}
			if result != nil {
				return result, nil
			}

		case *Terminal:
			return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("attempt to process a %v when a %v was expected", input, top), "gram.Parser.Advance")

		case *Repeater:
			if input == t.End {
				return input, nil
			}
			p.push(t.Production...)

		case *Root:
			p.push(t.Production...)

		case *Sequence:
			p.push(t.Production...)

		default:
			return nil, encio.NewError(encio.ErrBadType, fmt.Sprintf("attempt to process a %v when a %v was expected", input, top), "gram.Parser.Advance")
		}
	}
}

// ProcessImplicitActions runs every implicit action up to the next terminal,
// expanding sequences and repeaters on the way.
func (p *Parser) ProcessImplicitActions() error {
	for len(p.stack) > 1 {
		switch t := p.stack[len(p.stack)-1].(type) {
		case ImplicitAction:
			p.stack = p.stack[:len(p.stack)-1]
			if _, err := p.handler.DoAction(nil, t); err != nil {
				return err
			}
		case *Sequence:
			p.stack = p.stack[:len(p.stack)-1]
			p.push(t.Production...)
		case *Repeater:
			p.stack = p.stack[:len(p.stack)-1]
			p.push(t.Production...)
		default:
			return nil
		}
	}
	return nil
}

// ProcessTrailingImplicitActions runs the trailing implicit actions at the top of the stack.
func (p *Parser) ProcessTrailingImplicitActions() error {
	for len(p.stack) > 1 {
		t, ok := p.stack[len(p.stack)-1].(ImplicitAction)
		if !ok || !t.Trailing() {
			return nil
		}
		p.stack = p.stack[:len(p.stack)-1]
		if _, err := p.handler.DoAction(nil, t); err != nil {
			return err
		}
	}
	return nil
}

// PopSymbol removes and returns the top of the stack, or nil if only the root is left.
func (p *Parser) PopSymbol() Symbol {
	if len(p.stack) <= 1 {
		return nil
	}
	top, _ := p.pop()
	return top
}

// PushSymbol pushes sym onto the stack.
func (p *Parser) PushSymbol(sym Symbol) { p.push(sym) }

// TopSymbol returns the top of the stack.
func (p *Parser) TopSymbol() Symbol { return p.stack[len(p.stack)-1] }

// Depth returns the number of symbols on the stack, including the root.
func (p *Parser) Depth() int { return len(p.stack) }

// Reset discards the parser's state, leaving only the root.
func (p *Parser) Reset() {
	for i := range p.stack {
		p.stack[i] = nil
	}
	p.stack = append(p.stack[:0], p.root)
}

func (p *Parser) pop() (Symbol, bool) {
	if len(p.stack) == 0 {
		return nil, false
	}
	top := p.stack[len(p.stack)-1]
	p.stack[len(p.stack)-1] = nil
	p.stack = p.stack[:len(p.stack)-1]
	return top, true
}

func (p *Parser) push(syms ...Symbol) {
	p.stack = append(p.stack, syms...)
}
