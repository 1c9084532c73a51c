package lang

import (
	"context"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// ParserPool hands out one *sitter.Parser per grammar per caller, reusing
// idle parsers across files on the same goroutine. Parsers are not
// thread-safe; callers must not share a leased parser across goroutines.
type ParserPool struct {
	mu   sync.Mutex
	idle map[string][]*sitter.Parser
}

func NewParserPool() *ParserPool {
	return &ParserPool{idle: make(map[string][]*sitter.Parser)}
}

// Lease returns a parser configured for grammar, reusing an idle one when
// available. Callers must call Release when done to return it to the pool.
func (p *ParserPool) Lease(grammar string, lang *sitter.Language) *sitter.Parser {
	p.mu.Lock()
	if list := p.idle[grammar]; len(list) > 0 {
		parser := list[len(list)-1]
		p.idle[grammar] = list[:len(list)-1]
		p.mu.Unlock()
		return parser
	}
	p.mu.Unlock()

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	return parser
}

// Release returns a leased parser to the pool for reuse.
func (p *ParserPool) Release(grammar string, parser *sitter.Parser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idle[grammar] = append(p.idle[grammar], parser)
}

// Parse leases a parser for the provider's grammar, parses source, and
// releases the parser back to the pool before returning.
func (p *ParserPool) Parse(ctx context.Context, provider Provider, source []byte) (*sitter.Tree, error) {
	parser := p.Lease(provider.GrammarName(), provider.Grammar())
	defer p.Release(provider.GrammarName(), parser)
	return parser.ParseCtx(ctx, nil, source)
}

// DefaultPool is the process-wide parser pool.
var DefaultPool = NewParserPool()
