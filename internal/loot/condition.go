package loot

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// ErrInvalidCondition is returned for condition strings that do not parse
var ErrInvalidCondition = errors.New("invalid condition")

// gameState is the view of a game that conditions are evaluated against
type gameState interface {
	// resolveDataFile finds a data-relative path in the additional paths, then the game data path
	resolveDataFile(rel string) (string, bool)
	// dataDirs lists the directories searched for data files, highest priority first
	dataDirs() []string
	// loadedPlugin returns the header of a loaded plugin
	loadedPlugin(name string) (*Plugin, bool)
	// loadedPluginNames lists the loaded plugins
	loadedPluginNames() []string
}

// conditionCache memoizes condition results and file checksums.
// It has its own lock so that evaluation can run under the database read lock.
type conditionCache struct {
	mu         sync.Mutex
	conditions map[string]bool
	crcs       map[string]uint32
}

func newConditionCache() *conditionCache {
	return &conditionCache{
		conditions: make(map[string]bool),
		crcs:       make(map[string]uint32),
	}
}

func (c *conditionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conditions = make(map[string]bool)
	c.crcs = make(map[string]uint32)
}

func (c *conditionCache) condition(expr string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.conditions[expr]
	return v, ok
}

func (c *conditionCache) storeCondition(expr string, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conditions[expr] = v
}

func (c *conditionCache) crc(path string) (uint32, error) {
	c.mu.Lock()
	if v, ok := c.crcs[path]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	sum := h.Sum32()

	c.mu.Lock()
	c.crcs[path] = sum
	c.mu.Unlock()
	return sum, nil
}

// evaluator evaluates condition strings against a game state
type evaluator struct {
	state gameState
	cache *conditionCache
}

// evaluate returns the truth value of a condition; an empty condition is true
func (e *evaluator) evaluate(expr string) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}
	if v, ok := e.cache.condition(expr); ok {
		return v, nil
	}

	p := &conditionParser{eval: e, tokens: nil}
	tokens, err := tokenize(expr)
	if err != nil {
		return false, err
	}
	p.tokens = tokens

	v, err := p.parseExpression()
	if err != nil {
		return false, fmt.Errorf("%w: %q: %v", ErrInvalidCondition, expr, err)
	}
	if p.pos != len(p.tokens) {
		return false, fmt.Errorf("%w: %q: unexpected %q", ErrInvalidCondition, expr, p.tokens[p.pos].text)
	}

	e.cache.storeCondition(expr, v)
	return v, nil
}

// checksumMatches reports whether the loaded plugin's file has the given CRC-32
func (e *evaluator) checksumMatches(pluginName string, crc uint32) bool {
	path, ok := e.state.resolveDataFile(pluginName)
	if !ok {
		if p, loaded := e.state.loadedPlugin(pluginName); loaded {
			path = p.Path()
		} else {
			return false
		}
	}
	sum, err := e.cache.crc(path)
	return err == nil && sum == crc
}

// ============================================================
// Tokenizer
// ============================================================

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "("})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")"})
			i++
		case c == ',':
			tokens = append(tokens, token{tokComma, ","})
			i++
		case c == '"':
			end := strings.IndexByte(expr[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("%w: %q: unterminated string", ErrInvalidCondition, expr)
			}
			tokens = append(tokens, token{tokString, expr[i+1 : i+1+end]})
			i += end + 2
		case c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c)):
			start := i
			for i < len(expr) && (expr[i] == '_' || unicode.IsLetter(rune(expr[i])) || unicode.IsDigit(rune(expr[i]))) {
				i++
			}
			tokens = append(tokens, token{tokIdent, expr[start:i]})
		default:
			return nil, fmt.Errorf("%w: %q: unexpected character %q", ErrInvalidCondition, expr, c)
		}
	}
	return tokens, nil
}

// ============================================================
// Parser
// ============================================================

// conditionParser evaluates while parsing:
//
//	expression = compound { "or" compound }
//	compound   = condition { "and" condition }
//	condition  = [ "not" ] ( function | "(" expression ")" )
type conditionParser struct {
	eval   *evaluator
	tokens []token
	pos    int
}

func (p *conditionParser) peek() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *conditionParser) next() (token, error) {
	t, ok := p.peek()
	if !ok {
		return token{}, errors.New("unexpected end of condition")
	}
	p.pos++
	return t, nil
}

func (p *conditionParser) expect(kind tokenKind, what string) (token, error) {
	t, err := p.next()
	if err != nil {
		return token{}, err
	}
	if t.kind != kind {
		return token{}, fmt.Errorf("expected %s, got %q", what, t.text)
	}
	return t, nil
}

func (p *conditionParser) keyword(word string) bool {
	t, ok := p.peek()
	if ok && t.kind == tokIdent && t.text == word {
		p.pos++
		return true
	}
	return false
}

func (p *conditionParser) parseExpression() (bool, error) {
	result, err := p.parseCompound()
	if err != nil {
		return false, err
	}
	for p.keyword("or") {
		v, err := p.parseCompound()
		if err != nil {
			return false, err
		}
		result = result || v
	}
	return result, nil
}

func (p *conditionParser) parseCompound() (bool, error) {
	result, err := p.parseCondition()
	if err != nil {
		return false, err
	}
	for p.keyword("and") {
		v, err := p.parseCondition()
		if err != nil {
			return false, err
		}
		result = result && v
	}
	return result, nil
}

func (p *conditionParser) parseCondition() (bool, error) {
	negate := p.keyword("not")

	t, err := p.next()
	if err != nil {
		return false, err
	}

	var result bool
	switch t.kind {
	case tokLParen:
		result, err = p.parseExpression()
		if err != nil {
			return false, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return false, err
		}
	case tokIdent:
		result, err = p.parseFunction(t.text)
		if err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("unexpected %q", t.text)
	}

	if negate {
		return !result, nil
	}
	return result, nil
}

func (p *conditionParser) parseFunction(name string) (bool, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return false, err
	}
	var args []string
	for {
		t, err := p.next()
		if err != nil {
			return false, err
		}
		if t.kind == tokRParen && len(args) == 0 {
			break
		}
		if t.kind != tokString && t.kind != tokIdent {
			return false, fmt.Errorf("unexpected %q in arguments of %s", t.text, name)
		}
		args = append(args, t.text)

		sep, err := p.next()
		if err != nil {
			return false, err
		}
		if sep.kind == tokRParen {
			break
		}
		if sep.kind != tokComma {
			return false, fmt.Errorf("expected ',' or ')', got %q", sep.text)
		}
	}
	return p.eval.call(name, args)
}

// ============================================================
// Functions
// ============================================================

func (e *evaluator) call(name string, args []string) (bool, error) {
	want := 1
	if name == "checksum" {
		want = 2
	}
	if len(args) != want {
		return false, fmt.Errorf("%s takes %d argument(s), got %d", name, want, len(args))
	}

	switch name {
	case "file":
		return e.fileExists(args[0]), nil
	case "readable":
		path, ok := e.state.resolveDataFile(args[0])
		if !ok {
			return false, nil
		}
		f, err := os.Open(path)
		if err != nil {
			return false, nil
		}
		f.Close()
		return true, nil
	case "active":
		_, ok := e.state.loadedPlugin(args[0])
		return ok, nil
	case "is_master":
		p, ok := e.state.loadedPlugin(args[0])
		return ok && p.IsMaster(), nil
	case "many":
		re, err := fileRegex(args[0])
		if err != nil {
			return false, err
		}
		return e.countDataFiles(re) > 1, nil
	case "many_active":
		re, err := fileRegex(args[0])
		if err != nil {
			return false, err
		}
		count := 0
		for _, n := range e.state.loadedPluginNames() {
			if re.MatchString(n) {
				count++
			}
		}
		return count > 1, nil
	case "checksum":
		want, err := strconv.ParseUint(strings.TrimPrefix(args[1], "0x"), 16, 32)
		if err != nil {
			return false, fmt.Errorf("invalid checksum %q", args[1])
		}
		path, ok := e.state.resolveDataFile(args[0])
		if !ok {
			return false, nil
		}
		sum, err := e.cache.crc(path)
		if err != nil {
			return false, nil
		}
		return sum == uint32(want), nil
	default:
		return false, fmt.Errorf("unknown function %q", name)
	}
}

func (e *evaluator) fileExists(rel string) bool {
	if _, ok := e.state.loadedPlugin(rel); ok {
		return true
	}
	_, ok := e.state.resolveDataFile(rel)
	return ok
}

func (e *evaluator) countDataFiles(re *regexp.Regexp) int {
	seen := make(map[string]bool)
	for _, dir := range e.state.dataDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			key := foldName(entry.Name())
			if seen[key] || !re.MatchString(entry.Name()) {
				continue
			}
			seen[key] = true
		}
	}
	return len(seen)
}

func fileRegex(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)^" + pattern + "$")
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	return re, nil
}
