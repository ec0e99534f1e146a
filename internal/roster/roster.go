// Package roster holds the static wrestler roster and move taxonomy, and
// validates submitted moves against it.
package roster

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed roster.yaml
var defaultRoster []byte

// Category is a move category.
type Category string

const (
	CategoryStrike     Category = "strike"
	CategoryGrapple    Category = "grapple"
	CategoryAerial     Category = "aerial"
	CategorySubmission Category = "submission"
	CategoryFinisher   Category = "finisher"
)

// Categories lists move categories in display order.
var Categories = []Category{CategoryStrike, CategoryGrapple, CategoryAerial, CategorySubmission, CategoryFinisher}

// CategoryStats are the resolution parameters shared by every move in a category.
type CategoryStats struct {
	MinDamage    int      `yaml:"min_damage"`
	MaxDamage    int      `yaml:"max_damage"`
	Accuracy     int      `yaml:"accuracy"`
	Momentum     int      `yaml:"momentum"`
	MomentumCost int      `yaml:"momentum_cost"`
	Moves        []string `yaml:"moves"`
}

// Move is a single entry of the taxonomy.
type Move struct {
	Name     string
	Category Category
	Stats    CategoryStats
}

// Roster is the parsed static data.
type Roster struct {
	CategoryStats map[Category]CategoryStats `yaml:"categories"`
	Wrestlers     []string                   `yaml:"wrestlers"`

	moves map[string]Move
}

// Parse decodes and validates roster YAML.
func Parse(data []byte) (*Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse roster YAML: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.index()
	return &r, nil
}

var (
	defaultOnce sync.Once
	defaultR    *Roster
	defaultErr  error
)

// Default returns the embedded roster.
func Default() (*Roster, error) {
	defaultOnce.Do(func() {
		defaultR, defaultErr = Parse(defaultRoster)
	})
	return defaultR, defaultErr
}

// MustDefault is like Default but panics on a broken embedded roster.
func MustDefault() *Roster {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Validate checks wrestler uniqueness and that every move belongs to exactly
// one category.
func (r *Roster) Validate() error {
	if len(r.Wrestlers) == 0 {
		return fmt.Errorf("roster has no wrestlers")
	}
	seen := make(map[string]bool, len(r.Wrestlers))
	for _, w := range r.Wrestlers {
		key := normalize(w)
		if key == "" {
			return fmt.Errorf("roster has an empty wrestler name")
		}
		if seen[key] {
			return fmt.Errorf("duplicate wrestler %q", w)
		}
		seen[key] = true
	}

	owner := make(map[string]Category)
	for _, c := range Categories {
		stats, ok := r.CategoryStats[c]
		if !ok {
			return fmt.Errorf("missing move category %q", c)
		}
		if stats.MinDamage <= 0 || stats.MaxDamage < stats.MinDamage {
			return fmt.Errorf("category %q has invalid damage range %d-%d", c, stats.MinDamage, stats.MaxDamage)
		}
		if stats.Accuracy <= 0 || stats.Accuracy > 100 {
			return fmt.Errorf("category %q has invalid accuracy %d", c, stats.Accuracy)
		}
		if len(stats.Moves) == 0 {
			return fmt.Errorf("category %q has no moves", c)
		}
		for _, m := range stats.Moves {
			key := normalize(m)
			if key == "" {
				return fmt.Errorf("category %q has an empty move name", c)
			}
			if prev, dup := owner[key]; dup {
				return fmt.Errorf("move %q appears in both %q and %q", m, prev, c)
			}
			owner[key] = c
		}
	}
	for c := range r.CategoryStats {
		if !isKnownCategory(c) {
			return fmt.Errorf("unknown move category %q", c)
		}
	}
	return nil
}

func isKnownCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (r *Roster) index() {
	r.moves = make(map[string]Move)
	for _, c := range Categories {
		stats := r.CategoryStats[c]
		for _, name := range stats.Moves {
			r.moves[normalize(name)] = Move{Name: name, Category: c, Stats: stats}
		}
	}
}

// LookupMove resolves user input to a move, ignoring case, punctuation and
// spacing.
func (r *Roster) LookupMove(input string) (Move, error) {
	key := normalize(input)
	if key == "" {
		return Move{}, &UnknownMoveError{Input: input}
	}
	if m, ok := r.moves[key]; ok {
		return m, nil
	}
	return Move{}, &UnknownMoveError{Input: input, Suggestions: r.suggest(key, 3)}
}

func (r *Roster) suggest(key string, limit int) []string {
	var out []string
	for k, m := range r.moves {
		if strings.Contains(k, key) || strings.Contains(key, k) {
			out = append(out, m.Name)
		}
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MovesIn returns the move names of a category in taxonomy order.
func (r *Roster) MovesIn(c Category) []string {
	return append([]string(nil), r.CategoryStats[c].Moves...)
}

// MoveCount returns the number of distinct moves.
func (r *Roster) MoveCount() int {
	return len(r.moves)
}

// AssignWrestlers deals n distinct wrestlers.
func (r *Roster) AssignWrestlers(n int, rng *rand.Rand) ([]string, error) {
	if n > len(r.Wrestlers) {
		return nil, fmt.Errorf("need %d wrestlers but roster has %d", n, len(r.Wrestlers))
	}
	perm := rng.Perm(len(r.Wrestlers))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = r.Wrestlers[perm[i]]
	}
	return out, nil
}

func normalize(s string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(s) {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
