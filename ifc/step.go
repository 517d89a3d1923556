// Package ifc reads building models in the IFC STEP physical file format
// (ISO 10303-21) and exposes them through the read-only accessor surface the
// evaluation core consumes: typed enumeration, parent-edge traversal, unit
// and quantity lookup, and mesh generation.
package ifc

import (
	"fmt"
	"strconv"
	"strings"
)

// entity is one parsed instance line, e.g.
//
//	#12=IFCSPACE('2O2Fr$t4X7Zf8NOew3FLOH',$,'101',$,$,#31,#40,'Classroom',.ELEMENT.,.INTERNAL.,$);
type entity struct {
	id   int64
	typ  string // upper-case entity type
	args []arg
}

// arg returns the i-th attribute, tolerating short argument lists from
// sloppy exporters.
func (e *entity) arg(i int) arg {
	if i < 0 || i >= len(e.args) {
		return arg{kind: argNull}
	}
	return e.args[i]
}

type argKind int

const (
	argNull    argKind = iota // $
	argDerived                // *
	argNumber
	argString
	argEnum // .IDENT.
	argRef  // #123
	argList // (...)
	argTyped
)

// arg is one attribute value. Typed values (IFCAREAMEASURE(84.)) keep the
// wrapper name in str and the payload in list.
type arg struct {
	kind argKind
	num  float64
	str  string
	ref  int64
	list []arg
}

func (a arg) isNull() bool { return a.kind == argNull || a.kind == argDerived }

// number unwraps a plain or typed numeric value.
func (a arg) number() (float64, bool) {
	switch a.kind {
	case argNumber:
		return a.num, true
	case argTyped:
		if len(a.list) == 1 {
			return a.list[0].number()
		}
	}
	return 0, false
}

func (a arg) text() string {
	if a.kind == argString {
		return a.str
	}
	return ""
}

func (a arg) enum() string {
	if a.kind == argEnum {
		return a.str
	}
	return ""
}

// parser is a single-pass reader over the raw file bytes. Only instance
// lines are materialized; header statements are skipped.
type parser struct {
	data []byte
	pos  int
}

// parseStep decodes every instance line in the file. It fails on structural
// errors (unterminated strings, malformed instance names) and tolerates
// everything it does not understand by skipping to the next statement.
func parseStep(data []byte) (map[int64]*entity, error) {
	p := &parser{data: data}
	entities := make(map[int64]*entity)

	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return entities, nil
		}
		if p.data[p.pos] != '#' {
			// HEADER statement, section keyword, or complex instance –
			// not an instance line we care about.
			if err := p.skipStatement(); err != nil {
				return nil, err
			}
			continue
		}

		ent, err := p.parseEntity()
		if err != nil {
			return nil, err
		}
		if ent != nil {
			entities[ent.id] = ent
		}
	}
}

func (p *parser) parseEntity() (*entity, error) {
	p.pos++ // consume '#'
	id, err := p.parseInt()
	if err != nil {
		return nil, fmt.Errorf("parseStep: instance name at offset %d: %w", p.pos, err)
	}
	p.skipSpace()
	if p.pos >= len(p.data) || p.data[p.pos] != '=' {
		return nil, fmt.Errorf("parseStep: expected '=' after #%d", id)
	}
	p.pos++
	p.skipSpace()

	// Complex (multi-leaf) instances open with '('. They never carry the
	// spatial data this reader needs, so skip them whole.
	if p.pos < len(p.data) && p.data[p.pos] == '(' {
		if err := p.skipStatement(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	typ := p.parseIdent()
	if typ == "" {
		return nil, fmt.Errorf("parseStep: #%d has no entity type", id)
	}
	p.skipSpace()
	if p.pos >= len(p.data) || p.data[p.pos] != '(' {
		return nil, fmt.Errorf("parseStep: #%d=%s missing argument list", id, typ)
	}
	args, err := p.parseArgList()
	if err != nil {
		return nil, fmt.Errorf("parseStep: #%d=%s: %w", id, typ, err)
	}
	p.skipSpace()
	if p.pos < len(p.data) && p.data[p.pos] == ';' {
		p.pos++
	}
	return &entity{id: id, typ: strings.ToUpper(typ), args: args}, nil
}

// parseArgList consumes a parenthesized, comma-separated argument list,
// starting at '('.
func (p *parser) parseArgList() ([]arg, error) {
	p.pos++ // consume '('
	var args []arg
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("unterminated argument list")
		}
		if p.data[p.pos] == ')' {
			p.pos++
			return args, nil
		}
		a, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		p.skipSpace()
		if p.pos < len(p.data) && p.data[p.pos] == ',' {
			p.pos++
		}
	}
}

func (p *parser) parseArg() (arg, error) {
	if p.pos >= len(p.data) {
		return arg{}, fmt.Errorf("unexpected end of input")
	}
	switch c := p.data[p.pos]; {
	case c == '$':
		p.pos++
		return arg{kind: argNull}, nil
	case c == '*':
		p.pos++
		return arg{kind: argDerived}, nil
	case c == '#':
		p.pos++
		ref, err := p.parseInt()
		if err != nil {
			return arg{}, err
		}
		return arg{kind: argRef, ref: ref}, nil
	case c == '\'':
		s, err := p.parseString()
		if err != nil {
			return arg{}, err
		}
		return arg{kind: argString, str: s}, nil
	case c == '.':
		return p.parseEnum()
	case c == '(':
		list, err := p.parseArgList()
		if err != nil {
			return arg{}, err
		}
		return arg{kind: argList, list: list}, nil
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		// Typed value: IDENT '(' args ')'.
		ident := p.parseIdent()
		if ident == "" {
			return arg{}, fmt.Errorf("unexpected byte %q at offset %d", c, p.pos)
		}
		p.skipSpace()
		if p.pos >= len(p.data) || p.data[p.pos] != '(' {
			return arg{}, fmt.Errorf("typed value %s missing payload", ident)
		}
		list, err := p.parseArgList()
		if err != nil {
			return arg{}, err
		}
		return arg{kind: argTyped, str: strings.ToUpper(ident), list: list}, nil
	}
}

// parseString decodes a STEP string literal. The '' escape is unfolded;
// \X\-style encodings are preserved verbatim.
func (p *parser) parseString() (string, error) {
	p.pos++ // consume opening quote
	var sb strings.Builder
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '\'' {
			if p.pos+1 < len(p.data) && p.data[p.pos+1] == '\'' {
				sb.WriteByte('\'')
				p.pos += 2
				continue
			}
			p.pos++
			return sb.String(), nil
		}
		sb.WriteByte(c)
		p.pos++
	}
	return "", fmt.Errorf("unterminated string literal")
}

func (p *parser) parseEnum() (arg, error) {
	p.pos++ // consume opening '.'
	start := p.pos
	for p.pos < len(p.data) && p.data[p.pos] != '.' {
		p.pos++
	}
	if p.pos >= len(p.data) {
		return arg{}, fmt.Errorf("unterminated enumeration value")
	}
	val := string(p.data[start:p.pos])
	p.pos++ // consume closing '.'
	return arg{kind: argEnum, str: strings.ToUpper(val)}, nil
}

func (p *parser) parseNumber() (arg, error) {
	start := p.pos
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	raw := string(p.data[start:p.pos])
	// STEP reals may end in a bare point ("10000.") which ParseFloat
	// accepts as-is.
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return arg{}, fmt.Errorf("bad number %q: %w", raw, err)
	}
	return arg{kind: argNumber, num: v}, nil
}

func (p *parser) parseInt() (int64, error) {
	start := p.pos
	for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected digits")
	}
	return strconv.ParseInt(string(p.data[start:p.pos]), 10, 64)
}

func (p *parser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	return string(p.data[start:p.pos])
}

// skipStatement advances past the next ';', honouring string literals so an
// embedded semicolon cannot end the statement early.
func (p *parser) skipStatement() error {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case '\'':
			if _, err := p.parseString(); err != nil {
				return err
			}
		case ';':
			p.pos++
			return nil
		default:
			p.pos++
		}
	}
	return nil
}

// skipSpace advances past whitespace and /* */ comments.
func (p *parser) skipSpace() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.pos++
		case c == '/' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '*':
			p.pos += 2
			for p.pos+1 < len(p.data) {
				if p.data[p.pos] == '*' && p.data[p.pos+1] == '/' {
					p.pos += 2
					break
				}
				p.pos++
			}
		default:
			return
		}
	}
}
