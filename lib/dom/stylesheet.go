package dom

import (
	"errors"
	"strings"
	"sync"
)

// ErrInvalidCSS is returned by StyleSheet.Replace for unbalanced input.
var ErrInvalidCSS = errors.New("dom: invalid stylesheet")

// StyleSheet is a constructable stylesheet holding top-level rules.
type StyleSheet struct {
	mu    sync.RWMutex
	rules []string
}

// NewStyleSheet returns an empty stylesheet.
func NewStyleSheet() *StyleSheet {
	return &StyleSheet{}
}

// Replace parses css into top-level rules and swaps them in. On error the
// sheet is left unchanged.
func (s *StyleSheet) Replace(css string) error {
	rules, err := splitRules(css)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()
	return nil
}

// Rules returns a copy of the sheet's rules.
func (s *StyleSheet) Rules() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.rules...)
}

// Len returns the number of rules.
func (s *StyleSheet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// CSS joins the rules back into stylesheet text.
func (s *StyleSheet) CSS() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strings.Join(s.rules, "\n")
}

// splitRules separates css into top-level blocks and statements.
func splitRules(css string) ([]string, error) {
	css, err := stripComments(css)
	if err != nil {
		return nil, err
	}
	var rules []string
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(css); i++ {
		c := css[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return nil, ErrInvalidCSS
			}
			if depth == 0 {
				rules = append(rules, strings.TrimSpace(css[start:i+1]))
				start = i + 1
			}
		case ';':
			if depth == 0 {
				if r := strings.TrimSpace(css[start : i+1]); r != ";" {
					rules = append(rules, r)
				}
				start = i + 1
			}
		}
	}
	if depth != 0 || quote != 0 || strings.TrimSpace(css[start:]) != "" {
		return nil, ErrInvalidCSS
	}
	return rules, nil
}

func stripComments(css string) (string, error) {
	var sb strings.Builder
	var quote byte
	for i := 0; i < len(css); i++ {
		c := css[i]
		switch {
		case quote != 0:
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(css) {
				i++
				sb.WriteByte(css[i])
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			sb.WriteByte(c)
		case c == '/' && i+1 < len(css) && css[i+1] == '*':
			end := strings.Index(css[i+2:], "*/")
			if end < 0 {
				return "", ErrInvalidCSS
			}
			i += 2 + end + 1
			sb.WriteByte(' ')
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}
