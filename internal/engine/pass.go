package engine

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/framesynth/internal/diag"
	"github.com/roach88/framesynth/internal/interp"
	"github.com/roach88/framesynth/internal/ir"
)

// DefaultTokenPackage is the package of tokens allocated by a pass.
const DefaultTokenPackage = "framesynth.generated"

// Options configures a Pass. Zero values select the defaults.
type Options struct {
	// Interpreters maps callees to interpreters. Default: interp.Builtins().
	Interpreters *interp.Registry

	// Reporter receives interpretation errors.
	// Default: diag.NewCollector(diag.OncePerCall()).
	Reporter diag.Reporter

	// Disambiguator numbers nested marker names. Default: HashDisambiguator.
	Disambiguator Disambiguator

	// Logger receives debug events. Default: zap.NewNop().
	Logger *zap.Logger

	// IDGenerator generates the pass ID. Default: UUIDv7Generator.
	IDGenerator IDGenerator

	// TokenPackage is the package of root tokens the pass allocates.
	// Nested tokens live in their enclosing token's package.
	// Default: DefaultTokenPackage.
	TokenPackage string
}

// Pass is one analysis pass over one or more call chains.
//
// A Pass exclusively owns its Registries, naming state and Reporter. It is
// not safe for concurrent use; independent passes may run concurrently.
type Pass struct {
	id           string
	interpreters *interp.Registry
	reporter     diag.Reporter
	logger       *zap.Logger
	tokenPkg     string

	reg   *Registries
	names *namer

	// markers maps a synthesized call to its root marker, for receivers.
	markers map[string]ir.TypeRef
}

// NewPass creates a pass with empty registries.
func NewPass(opts Options) *Pass {
	if opts.Interpreters == nil {
		opts.Interpreters = interp.Builtins()
	}
	if opts.Reporter == nil {
		opts.Reporter = diag.NewCollector(diag.OncePerCall())
	}
	if opts.Disambiguator == nil {
		opts.Disambiguator = HashDisambiguator{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = UUIDv7Generator{}
	}
	if opts.TokenPackage == "" {
		opts.TokenPackage = DefaultTokenPackage
	}

	id := opts.IDGenerator.Generate()
	return &Pass{
		id:           id,
		interpreters: opts.Interpreters,
		reporter:     opts.Reporter,
		logger:       opts.Logger.With(zap.String("pass", id)),
		tokenPkg:     opts.TokenPackage,
		reg:          NewRegistries(),
		names:        newNamer(opts.TokenPackage, opts.Disambiguator),
		markers:      make(map[string]ir.TypeRef),
	}
}

// ID returns the pass ID.
func (p *Pass) ID() string { return p.id }

// Registries returns the pass's registries for member resolution.
func (p *Pass) Registries() *Registries { return p.reg }

// Reporter returns the pass's reporter.
func (p *Pass) Reporter() diag.Reporter { return p.reporter }

// GenerateAccessors analyzes a call and materializes its schema under the
// call's root marker. It returns the synthesized scope types, or nil when
// the call does not apply or its interpretation failed.
func (p *Pass) GenerateAccessors(call *ir.Call) ([]ir.TypeRef, error) {
	res, ok := p.Analyze(call)
	if !ok {
		return nil, nil
	}
	types, err := p.MaterializeRoot(call, res.Schema, res.RootMarker)
	if err != nil {
		return nil, err
	}
	p.markers[call.ID] = res.RootMarker
	return types, nil
}

// MaterializeRoot registers schema under rootMarker and publishes the
// synthesized scopes as the associated scopes of the root token.
//
// The list is post-order: every nested scope precedes its parent, and the
// root's own scope comes last. Malformed schemas are rejected with an
// INVALID_SCHEMA InternalError before anything is registered.
//
// A root marker belongs to one call. Nested names are keyed by call, so
// materializing the same root for a second call yields different
// properties and fails with CONFLICTING_STATE; compiler.Validate rejects
// such programs with E107.
func (p *Pass) MaterializeRoot(call *ir.Call, schema ir.Schema, rootMarker ir.TypeRef) ([]ir.TypeRef, error) {
	if !rootMarker.IsClass() {
		return nil, &InternalError{Code: ErrCodeInvalidSchema, Message: fmt.Sprintf("root marker %s is not a class", rootMarker), CallID: call.ID}
	}
	if err := validateSchema(call, schema); err != nil {
		return nil, err
	}
	m := p.newMaterializer(call)
	if _, err := m.materialize(schema, &rootMarker, tokenRequest{}); err != nil {
		return nil, err
	}
	return p.commit(m, rootMarker.Class)
}

// MaterializeNamed is MaterializeRoot for a schema without a root marker:
// the root token is allocated from suggested in the pass's token package.
func (p *Pass) MaterializeNamed(call *ir.Call, schema ir.Schema, suggested string) (ir.TypeRef, []ir.TypeRef, error) {
	if err := validateSchema(call, schema); err != nil {
		return ir.TypeRef{}, nil, err
	}
	m := p.newMaterializer(call)
	token := p.names.rootToken(call.ID, suggested)
	marker, err := m.materialize(schema, nil, tokenRequest{id: token, ok: true})
	if err != nil {
		return ir.TypeRef{}, nil, err
	}
	types, err := p.commit(m, token)
	if err != nil {
		return ir.TypeRef{}, nil, err
	}
	return marker, types, nil
}

func (p *Pass) newMaterializer(call *ir.Call) *materializer {
	return &materializer{call: call, reg: p.reg, names: p.names}
}

func (p *Pass) commit(m *materializer, root ir.ClassID) ([]ir.TypeRef, error) {
	if err := m.commit(root); err != nil {
		return nil, err
	}
	p.logger.Debug("schema materialized",
		zap.String("call", m.call.ID),
		zap.Stringer("root", root),
		zap.Int("scopes", len(m.types)),
	)
	return slices.Clone(m.types), nil
}

// receiverFunc resolves the schema of a call's receiver from the root
// marker it was synthesized under.
func (p *Pass) receiverFunc(call *ir.Call) interp.ReceiverFunc {
	if call.Receiver == "" {
		return nil
	}
	return func() (ir.Schema, error) {
		marker, ok := p.markers[call.Receiver]
		if !ok {
			return ir.Schema{}, fmt.Errorf("receiver %q has no synthesized schema", call.Receiver)
		}
		s, ok := p.reg.SchemaOf(marker)
		if !ok {
			return ir.Schema{}, fmt.Errorf("receiver %q: marker %s is not registered", call.Receiver, marker)
		}
		nested, ok := s.Nested(call.ReceiverPath)
		if !ok {
			return ir.Schema{}, fmt.Errorf("receiver %q has no column group or frame column %q", call.Receiver, call.ReceiverPath)
		}
		return nested, nil
	}
}

// refine gives a refined call its pass-allocated root token. The token is
// tagged as generated before the call is analyzed.
func (p *Pass) refine(call *ir.Call) (*ir.Call, error) {
	if !call.Refined {
		return call, nil
	}
	name, err := ir.RootTokenName(call.ID, call.Callee)
	if err != nil {
		return nil, &InternalError{Code: ErrCodeInvalidProgram, Message: "cannot derive root token", CallID: call.ID, Err: err}
	}
	token := p.names.rootToken(call.ID, name)
	p.reg.MarkGenerated(token)

	refined := *call
	refined.ReturnType = ir.DataFrameOf(ir.ClassType(token))
	return &refined, nil
}
