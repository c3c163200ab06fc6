// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// PoolSpec describes one specialist pool: which file extensions it claims and
// how many tasks it may run at once. The extension "*" marks the fallback
// pool for files no other pool claims.
type PoolSpec struct {
	Name        string   `yaml:"name"`
	DisplayName string   `yaml:"display_name"`
	Description string   `yaml:"description,omitempty"`
	Extensions  []string `yaml:"extensions"`
	Workers     int      `yaml:"workers"`
}

// Fallback reports whether this pool claims unmatched extensions.
func (s PoolSpec) Fallback() bool {
	return slices.Contains(s.Extensions, "*")
}

// DefaultPools returns the built-in pool table. Worker counts reflect parser
// cost: OCR-backed formats get few slots, cheap text formats get many.
func DefaultPools() []PoolSpec {
	return []PoolSpec{
		{
			Name:        "pdf",
			DisplayName: "PDF Specialist",
			Description: "Specialized in processing PDF documents with OCR capabilities",
			Extensions:  []string{"pdf"},
			Workers:     3,
		},
		{
			Name:        "docx",
			DisplayName: "Word Document Expert",
			Description: "Handles Microsoft Word documents and rich text",
			Extensions:  []string{"docx", "doc"},
			Workers:     4,
		},
		{
			Name:        "pptx",
			DisplayName: "Presentation Analyst",
			Description: "Processes PowerPoint presentations and slides",
			Extensions:  []string{"pptx", "ppt"},
			Workers:     2,
		},
		{
			Name:        "xlsx",
			DisplayName: "Spreadsheet Processor",
			Description: "Handles Excel files and spreadsheet data",
			Extensions:  []string{"xlsx", "xls"},
			Workers:     3,
		},
		{
			Name:        "csv",
			DisplayName: "Data Table Handler",
			Description: "Processes CSV and tabular data files",
			Extensions:  []string{"csv"},
			Workers:     5,
		},
		{
			Name:        "txt",
			DisplayName: "Text Document Processor",
			Description: "Handles plain text and markdown files",
			Extensions:  []string{"txt", "md"},
			Workers:     6,
		},
		{
			Name:        "rtf",
			DisplayName: "Rich Text Specialist",
			Description: "Processes RTF and formatted text documents",
			Extensions:  []string{"rtf"},
			Workers:     3,
		},
		{
			Name:        "odt",
			DisplayName: "OpenDocument Handler",
			Description: "Handles OpenDocument format files",
			Extensions:  []string{"odt", "ods", "odp"},
			Workers:     2,
		},
		{
			Name:        "general",
			DisplayName: "General File Processor",
			Description: "Fallback pool for unsupported file types",
			Extensions:  []string{"*"},
			Workers:     4,
		},
	}
}

// Registry routes files to pools by extension. It is immutable once built.
type Registry struct {
	specs    []PoolSpec
	byName   map[string]int
	byExt    map[string]int
	fallback int
}

// NewRegistry validates a pool table and builds the extension routing. Pool
// names and extensions must be unique across the table, every pool needs at
// least one worker slot, and exactly one place must claim "*".
func NewRegistry(specs []PoolSpec) (*Registry, error) {
	if len(specs) == 0 {
		return nil, ErrNoPools
	}

	r := &Registry{
		specs:    make([]PoolSpec, len(specs)),
		byName:   make(map[string]int, len(specs)),
		byExt:    make(map[string]int),
		fallback: -1,
	}

	for i, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, fmt.Errorf("pool %d has no name", i)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate pool name %q", name)
		}
		if spec.Workers < 1 {
			return nil, fmt.Errorf("pool %q needs at least one worker, got %d", name, spec.Workers)
		}
		if len(spec.Extensions) == 0 {
			return nil, fmt.Errorf("pool %q claims no extensions", name)
		}

		cleaned := spec
		cleaned.Name = name
		cleaned.Extensions = make([]string, 0, len(spec.Extensions))
		for _, ext := range spec.Extensions {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext == "" {
				return nil, fmt.Errorf("pool %q has an empty extension", name)
			}
			cleaned.Extensions = append(cleaned.Extensions, ext)

			if ext == "*" {
				if r.fallback >= 0 {
					return nil, fmt.Errorf("pools %q and %q both claim fallback",
						specs[r.fallback].Name, name)
				}
				r.fallback = i
				continue
			}
			if prev, dup := r.byExt[ext]; dup {
				return nil, fmt.Errorf("extension %q claimed by pools %q and %q",
					ext, specs[prev].Name, name)
			}
			r.byExt[ext] = i
		}

		r.specs[i] = cleaned
		r.byName[name] = i
	}

	if r.fallback < 0 {
		return nil, ErrNoFallbackPool
	}
	return r, nil
}

// DefaultRegistry builds the registry from the built-in pool table.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultPools())
	if err != nil {
		panic("scheduler: built-in pool table invalid: " + err.Error())
	}
	return r
}

// LoadRegistry reads a pool table from a YAML file with a top-level "pools"
// list and validates it like NewRegistry.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pool table: %w", err)
	}

	var file struct {
		Pools []PoolSpec `yaml:"pools"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing pool table: %w", err)
	}

	return NewRegistry(file.Pools)
}

// Resolve routes a filename to its pool by extension, falling back to the
// "*" pool for unclaimed or missing extensions.
func (r *Registry) Resolve(filename string) PoolSpec {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if i, ok := r.byExt[ext]; ok {
		return r.specs[i]
	}
	return r.specs[r.fallback]
}

// Lookup returns the pool with the given name.
func (r *Registry) Lookup(name string) (PoolSpec, bool) {
	i, ok := r.byName[name]
	if !ok {
		return PoolSpec{}, false
	}
	return r.specs[i], true
}

// Specs returns a copy of the pool table in declaration order.
func (r *Registry) Specs() []PoolSpec {
	return slices.Clone(r.specs)
}

// Capacity returns the total worker slots across all pools.
func (r *Registry) Capacity() int {
	total := 0
	for _, spec := range r.specs {
		total += spec.Workers
	}
	return total
}
