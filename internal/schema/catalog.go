// Package schema loads versioned schema sets, binds one set at a time, and
// validates values against its schemas.
package schema

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed sets
var builtinSets embed.FS

// RootSchema is the logical name of the whole-document schema.
const RootSchema = "vinv.json"

// RecordSchema is the logical name of the tree record schema.
const RecordSchema = "trees.json"

// baseURL prefixes resource locations; it is never fetched.
const baseURL = "https://vinv-group.github.io/vinv-schema/"

// Resource is one schema document of a set.
type Resource struct {
	Name string // Logical name, the file base name with a .json extension.
	Path string // Slash-separated path inside the set, e.g. "definitions/trees.json".
	Doc  any
}

// Set is the group of schema documents belonging to one version tag.
type Set struct {
	Version   string
	Resources map[string]Resource
}

// URL returns the location the resource is registered under.
func (s *Set) URL(res Resource) string {
	return baseURL + s.Version + "/" + res.Path
}

// Catalog maps version tags to schema sets.
type Catalog struct {
	sets map[string]*Set
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{sets: make(map[string]*Set)}
}

// Builtin returns a catalog holding the schema sets shipped with vinv.
func Builtin() (*Catalog, error) {
	c := NewCatalog()
	sub, err := fs.Sub(builtinSets, "sets")
	if err != nil {
		return nil, err
	}
	if err := c.LoadFS(sub); err != nil {
		return nil, fmt.Errorf("load builtin schema sets: %w", err)
	}
	return c, nil
}

// Add registers set, replacing any set with the same version tag.
func (c *Catalog) Add(set *Set) {
	c.sets[set.Version] = set
}

// Merge adds every set of other and returns the version tags that replaced
// a set already in c.
func (c *Catalog) Merge(other *Catalog) []string {
	var replaced []string
	for _, v := range other.Versions() {
		if _, ok := c.sets[v]; ok {
			replaced = append(replaced, v)
		}
		c.sets[v] = other.sets[v]
	}
	return replaced
}

// MergeDir merges the sets found under dir, like LoadDir followed by Merge,
// and returns the version tags that replaced an existing set. A missing dir
// adds nothing.
func (c *Catalog) MergeDir(dir string) ([]string, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	extra := NewCatalog()
	if err := extra.LoadDir(dir); err != nil {
		return nil, fmt.Errorf("schema dir %s: %w", dir, err)
	}
	return c.Merge(extra), nil
}

// Lookup returns the set for version.
func (c *Catalog) Lookup(version string) (*Set, bool) {
	set, ok := c.sets[version]
	return set, ok
}

// Versions returns the known version tags in ascending order.
func (c *Catalog) Versions() []string {
	out := make([]string, 0, len(c.sets))
	for v := range c.sets {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// LoadDir adds every version directory found under dir.
func (c *Catalog) LoadDir(dir string) error {
	return c.LoadFS(os.DirFS(dir))
}

// LoadFS adds one set per top-level directory of fsys. The directory name is
// the version tag; every .json, .yaml and .yml file below it is a resource.
func (c *Catalog) LoadFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		set, err := loadSet(fsys, e.Name())
		if err != nil {
			return fmt.Errorf("schema set %s: %w", e.Name(), err)
		}
		if len(set.Resources) == 0 {
			continue
		}
		c.Add(set)
	}
	return nil
}

func loadSet(fsys fs.FS, version string) (*Set, error) {
	set := &Set{Version: version, Resources: make(map[string]Resource)}
	err := fs.WalkDir(fsys, version, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		doc, err := decodeSchemaFile(data, ext)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		rel := strings.TrimSuffix(strings.TrimPrefix(p, version+"/"), ext) + ".json"
		name := path.Base(rel)
		if prev, dup := set.Resources[name]; dup {
			return fmt.Errorf("logical name %s used by both %s and %s", name, prev.Path, rel)
		}
		set.Resources[name] = Resource{Name: name, Path: rel, Doc: doc}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func decodeSchemaFile(data []byte, ext string) (any, error) {
	if ext == ".json" {
		return jsonschema.UnmarshalJSON(bytes.NewReader(data))
	}
	var node any
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return yamlNormalizeValue(node), nil
}

// yamlNormalizeValue converts YAML-decoded values into the JSON shapes the
// compiler expects: string-keyed maps and json.Number-style numbers.
func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				ks = fmt.Sprint(k)
			}
			out[ks] = yamlNormalizeValue(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	case int:
		return json.Number(strconv.Itoa(t))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	case float64:
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64))
	default:
		return v
	}
}
