// # internal/parser/parser.go
package parser

import (
	"errors"
	"fmt"
	"path/filepath"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

type Parser struct {
	loader     *GrammarLoader
	extractors map[string]Extractor // language -> extractor
}

type Extractor interface {
	Extract(node *sitter.Node, source []byte, filePath string) (*File, error)
}

func NewParser(loader *GrammarLoader) *Parser {
	p := &Parser{
		loader:     loader,
		extractors: make(map[string]Extractor),
	}
	p.RegisterExtractor("python", &PythonExtractor{})
	p.RegisterExtractor("go", &GoExtractor{})
	return p
}

func (p *Parser) RegisterExtractor(lang string, e Extractor) {
	p.extractors[lang] = e
}

// Supports reports whether the parser has a grammar for the file's extension.
func (p *Parser) Supports(path string) bool {
	return detectLanguage(path) != ""
}

func (p *Parser) ParseFile(path string, content []byte) (*File, error) {
	lang := detectLanguage(path)
	if lang == "" {
		return nil, ErrUnsupportedLanguage
	}

	grammar := p.loader.Language(lang)
	if grammar == nil {
		return nil, fmt.Errorf("grammar not loaded: %s", lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse failed: %s", path)
	}
	defer tree.Close()

	extractor := p.extractors[lang]
	if extractor == nil {
		return nil, fmt.Errorf("no extractor for: %s", lang)
	}

	return extractor.Extract(tree.RootNode(), content, path)
}

func detectLanguage(path string) string {
	switch filepath.Ext(path) {
	case ".py":
		return "python"
	case ".go":
		return "go"
	default:
		return ""
	}
}
