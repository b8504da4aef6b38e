package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ClassID identifies a nominal type by package and short name.
// ClassID is comparable and is used directly as a map key.
type ClassID struct {
	Package string `json:"package,omitempty"`
	Name    string `json:"name"`
}

// NewClassID splits a dotted fully-qualified name into package and short name.
// A name without dots has an empty package.
func NewClassID(fqn string) ClassID {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return ClassID{Name: fqn}
	}
	return ClassID{Package: fqn[:idx], Name: fqn[idx+1:]}
}

// String returns the dotted fully-qualified name.
func (c ClassID) String() string {
	if c.Package == "" {
		return c.Name
	}
	return c.Package + "." + c.Name
}

// IsZero reports whether c is the zero ClassID.
func (c ClassID) IsZero() bool {
	return c.Package == "" && c.Name == ""
}

// Sibling returns an identifier with the given short name in c's package.
func (c ClassID) Sibling(name string) ClassID {
	return ClassID{Package: c.Package, Name: name}
}

// TypeKind discriminates TypeRef variants.
type TypeKind int

const (
	// KindClass is a nominal (possibly generic) type.
	KindClass TypeKind = iota
	// KindVariable is an unresolved type variable such as 'T.
	KindVariable
	// KindStar is a star projection.
	KindStar
)

// TypeRef is a reference to a type as seen by the host type checker.
//
// TypeRef marshals to JSON as its String() form so that registries and
// golden snapshots stay readable.
type TypeRef struct {
	Kind     TypeKind
	Class    ClassID   // KindClass only
	Var      string    // KindVariable only
	Args     []TypeRef // KindClass only
	Nullable bool
}

// ClassType constructs a non-null nominal type reference.
func ClassType(id ClassID, args ...TypeRef) TypeRef {
	return TypeRef{Kind: KindClass, Class: id, Args: args}
}

// TypeVariable constructs a type variable reference.
func TypeVariable(name string) TypeRef {
	return TypeRef{Kind: KindVariable, Var: name}
}

// StarProjection constructs a star projection.
func StarProjection() TypeRef {
	return TypeRef{Kind: KindStar}
}

// IsClass reports whether t is a nominal type.
func (t TypeRef) IsClass() bool {
	return t.Kind == KindClass && !t.Class.IsZero()
}

// IsZero reports whether t is the zero TypeRef.
func (t TypeRef) IsZero() bool {
	return t.Kind == KindClass && t.Class.IsZero() && len(t.Args) == 0 && !t.Nullable
}

// WithNullable returns a copy of t with the given nullability.
func (t TypeRef) WithNullable(nullable bool) TypeRef {
	t.Nullable = nullable
	return t
}

// Arg returns the i-th type argument.
func (t TypeRef) Arg(i int) (TypeRef, bool) {
	if i < 0 || i >= len(t.Args) {
		return TypeRef{}, false
	}
	return t.Args[i], true
}

// Equal reports structural equality.
func (t TypeRef) Equal(o TypeRef) bool {
	if t.Kind != o.Kind || t.Class != o.Class || t.Var != o.Var || t.Nullable != o.Nullable {
		return false
	}
	if len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// String renders t in the syntax accepted by ParseTypeRef.
func (t TypeRef) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t TypeRef) write(b *strings.Builder) {
	switch t.Kind {
	case KindStar:
		b.WriteByte('*')
		return
	case KindVariable:
		b.WriteByte('\'')
		b.WriteString(t.Var)
	default:
		b.WriteString(t.Class.String())
		if len(t.Args) > 0 {
			b.WriteByte('<')
			for i, arg := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				arg.write(b)
			}
			b.WriteByte('>')
		}
	}
	if t.Nullable {
		b.WriteByte('?')
	}
}

// MarshalJSON implements json.Marshaler.
func (t TypeRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TypeRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTypeRef(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTypeRef parses the textual type syntax:
//
//	type  := '*' | '\'' ident ['?'] | qname ['<' type {',' type} '>'] ['?']
//	qname := ident {'.' ident}
//
// Undotted names found in the builtin alias table resolve to their
// fully-qualified form ("Int" -> "kotlin.Int", "DataFrame" ->
// "org.jetbrains.kotlinx.dataframe.DataFrame"); other undotted names
// are kept with an empty package.
func ParseTypeRef(s string) (TypeRef, error) {
	p := &typeParser{src: s}
	t, err := p.parseType()
	if err != nil {
		return TypeRef{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeRef{}, fmt.Errorf("parse type %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return t, nil
}

// MustParseTypeRef is like ParseTypeRef but panics on error.
// Use only in tests or for compile-time constant inputs.
func MustParseTypeRef(s string) TypeRef {
	t, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("parse type %q: %s", p.src, fmt.Sprintf(format, args...))
}

func (p *typeParser) parseType() (TypeRef, error) {
	p.skipSpace()
	switch p.peek() {
	case 0:
		return TypeRef{}, p.errorf("unexpected end of input")
	case '*':
		p.pos++
		return StarProjection(), nil
	case '\'':
		p.pos++
		name := p.ident()
		if name == "" {
			return TypeRef{}, p.errorf("type variable name expected at offset %d", p.pos)
		}
		t := TypeVariable(name)
		t.Nullable = p.nullable()
		return t, nil
	}

	qname, err := p.qname()
	if err != nil {
		return TypeRef{}, err
	}
	t := ClassType(resolveAlias(qname))

	p.skipSpace()
	if p.peek() == '<' {
		p.pos++
		for {
			arg, err := p.parseType()
			if err != nil {
				return TypeRef{}, err
			}
			t.Args = append(t.Args, arg)
			p.skipSpace()
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case '>':
				p.pos++
			default:
				return TypeRef{}, p.errorf("expected ',' or '>' at offset %d", p.pos)
			}
			break
		}
	}
	t.Nullable = p.nullable()
	return t, nil
}

func (p *typeParser) nullable() bool {
	p.skipSpace()
	if p.peek() == '?' {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) qname() (string, error) {
	var parts []string
	for {
		name := p.ident()
		if name == "" {
			return "", p.errorf("identifier expected at offset %d", p.pos)
		}
		parts = append(parts, name)
		if p.peek() != '.' {
			break
		}
		p.pos++
	}
	return strings.Join(parts, "."), nil
}

func (p *typeParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c >= 0x80
}

func resolveAlias(qname string) ClassID {
	if !strings.Contains(qname, ".") {
		if id, ok := builtinAliases[qname]; ok {
			return id
		}
	}
	return NewClassID(qname)
}
