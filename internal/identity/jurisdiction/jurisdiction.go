// Package jurisdiction models the court jurisdiction hierarchy as slash
// paths (state/county/court-type/court) and maps free-text jurisdiction
// strings onto canonical nodes through an alias table.
package jurisdiction

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Unresolved is the sentinel key for jurisdiction text that cannot be mapped
// onto the hierarchy. It is a valid key, not an error: unresolved records
// still flow through matching at reduced confidence.
const Unresolved = "unresolved"

// Hierarchy is an immutable set of canonical jurisdiction nodes plus an
// alias table. Build it once at startup; Resolve and the containment checks
// are pure afterwards.
type Hierarchy struct {
	nodes   map[string]bool
	aliases map[string]string
}

// aliasFile is the YAML shape of the alias table:
//
//	nodes:
//	  - ca/los-angeles/superior
//	aliases:
//	  "Los Angeles County Superior Court": ca/los-angeles/superior
type aliasFile struct {
	Nodes   []string          `yaml:"nodes"`
	Aliases map[string]string `yaml:"aliases"`
}

// New builds a hierarchy from canonical node paths and an alias table.
// Registering a node implicitly registers all its ancestors.
func New(nodes []string, aliases map[string]string) *Hierarchy {
	h := &Hierarchy{
		nodes:   make(map[string]bool),
		aliases: make(map[string]string),
	}
	for _, n := range nodes {
		h.register(Slug(n))
	}
	for alias, node := range aliases {
		node = Slug(node)
		h.register(node)
		h.aliases[normalizeText(alias)] = node
	}
	return h
}

// Load reads a hierarchy from a YAML alias file.
func Load(path string) (*Hierarchy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	var f aliasFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse alias file: %w", err)
	}
	return New(f.Nodes, f.Aliases), nil
}

func (h *Hierarchy) register(path string) {
	for path != "" {
		h.nodes[path] = true
		path = Parent(path)
	}
}

// Resolve maps a free-text jurisdiction string onto a canonical node key.
// Resolution order: alias table, then direct slug path. Unmappable input
// yields Unresolved.
func (h *Hierarchy) Resolve(raw string) string {
	if raw == "" {
		return Unresolved
	}
	if node, ok := h.aliases[normalizeText(raw)]; ok {
		return node
	}
	if slug := Slug(raw); h.nodes[slug] {
		return slug
	}
	return Unresolved
}

// Known reports whether key is a registered node.
func (h *Hierarchy) Known(key string) bool {
	return h.nodes[key]
}

// Nodes returns all registered node keys in sorted order.
func (h *Hierarchy) Nodes() []string {
	out := make([]string, 0, len(h.nodes))
	for n := range h.nodes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Parent returns the enclosing node of a path, or "" at the root.
func Parent(key string) string {
	i := strings.LastIndexByte(key, '/')
	if i < 0 {
		return ""
	}
	return key[:i]
}

// Ancestors returns the chain of enclosing nodes, nearest first.
func Ancestors(key string) []string {
	var out []string
	for p := Parent(key); p != ""; p = Parent(p) {
		out = append(out, p)
	}
	return out
}

// IsAncestor reports whether anc strictly encloses desc.
func IsAncestor(anc, desc string) bool {
	return anc != "" && desc != anc && strings.HasPrefix(desc, anc+"/")
}

// Compatible reports whether two keys sit on the same branch of the
// hierarchy: equal, or one enclosing the other. Unresolved is compatible
// with nothing, including itself.
func Compatible(a, b string) bool {
	if a == Unresolved || b == Unresolved {
		return false
	}
	return a == b || IsAncestor(a, b) || IsAncestor(b, a)
}

// Slug canonicalizes a path-ish string: lowercase, spaces to hyphens within
// segments, empty segments dropped.
func Slug(raw string) string {
	segs := strings.Split(strings.ToLower(strings.TrimSpace(raw)), "/")
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		s = strings.Trim(strings.Join(strings.Fields(s), "-"), "-")
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// normalizeText canonicalizes free text for alias lookup: lowercase,
// punctuation stripped, whitespace collapsed.
func normalizeText(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, raw)
	return strings.Join(strings.Fields(cleaned), " ")
}
