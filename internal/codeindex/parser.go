package codeindex

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"pageindex/internal/logging"
)

// CodeParser extracts the structural nodes of one source file.
//
// Parse returns the top-level nodes of the file (imports groups, namespaces,
// classes, functions) with their children attached. Line ranges are
// 1-indexed and inclusive. Text is filled in later by the file builder.
// Implementations must be safe for concurrent use.
type CodeParser interface {
	Parse(path string, content []byte) ([]*Node, error)

	// SupportedExtensions returns the handled extensions with the leading dot.
	SupportedExtensions() []string

	// Language returns a short identifier such as "cpp" or "python".
	Language() string
}

// ParserFactory routes parse requests to the parser registered for a file's
// extension.
type ParserFactory struct {
	mu      sync.RWMutex
	parsers map[string]CodeParser // extension -> parser
}

// NewParserFactory creates an empty factory.
func NewParserFactory() *ParserFactory {
	return &ParserFactory{parsers: make(map[string]CodeParser)}
}

// NewDefaultFactory returns a factory with every built-in parser registered:
// C, C++, Java, Python and Kotlin.
func NewDefaultFactory() *ParserFactory {
	f := NewParserFactory()
	f.Register(NewCParser())
	f.Register(NewCppParser())
	f.Register(NewJavaParser())
	f.Register(NewPythonParser())
	f.Register(NewKotlinParser())
	return f
}

// Register adds a parser for its supported extensions, replacing any parser
// previously registered for the same extension.
func (f *ParserFactory) Register(parser CodeParser) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ext := range parser.SupportedExtensions() {
		ext = normalizeExtension(ext)
		logging.ParseDebug("registering %s parser for %s", parser.Language(), ext)
		f.parsers[ext] = parser
	}
}

// GetParser returns the parser for a path, or nil.
func (f *ParserFactory) GetParser(path string) CodeParser {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.parsers[normalizeExtension(filepath.Ext(path))]
}

// HasParser returns true if a parser exists for the given file path.
func (f *ParserFactory) HasParser(path string) bool {
	return f.GetParser(path) != nil
}

// Parse extracts nodes from a file using the appropriate parser.
func (f *ParserFactory) Parse(path string, content []byte) ([]*Node, error) {
	parser := f.GetParser(path)
	if parser == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoParser, filepath.Ext(path))
	}
	return parser.Parse(path, content)
}

// SupportedExtensions returns all registered extensions, sorted.
func (f *ParserFactory) SupportedExtensions() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	exts := make([]string, 0, len(f.parsers))
	for ext := range f.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// RegisteredLanguages returns the distinct languages, sorted.
func (f *ParserFactory) RegisteredLanguages() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	seen := make(map[string]bool)
	var langs []string
	for _, parser := range f.parsers {
		if lang := parser.Language(); !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
