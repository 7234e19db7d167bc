// Package profiles keeps the endpoint profiles known to parley: the built-in
// backend variants plus any defined in YAML files.
package profiles

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-go-golems/parley/pkg/chatclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const DefaultProfile = "user"

// File is the on-disk layout of a profiles file.
type File struct {
	Profiles []chatclient.EndpointProfile `yaml:"profiles"`
}

type Registry struct {
	mu       sync.RWMutex
	profiles map[string]chatclient.EndpointProfile
	sources  map[string]string
}

// NewRegistry returns a registry holding the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{
		profiles: map[string]chatclient.EndpointProfile{},
		sources:  map[string]string{},
	}
	for _, p := range []chatclient.EndpointProfile{chatclient.UserProfile(), chatclient.ConversationProfile()} {
		r.profiles[p.Name] = p
		r.sources[p.Name] = "builtin"
	}
	return r
}

// Load reads profiles from r. Profiles named like an existing one replace it.
// Fields left out of a file profile inherit from the profile named by its
// `extends` key.
func (r *Registry) Load(source string, in io.Reader) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return errors.Wrapf(err, "read profiles from %s", source)
	}
	var raw struct {
		Profiles []yaml.Node `yaml:"profiles"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrapf(err, "parse profiles from %s", source)
	}

	loaded := make([]chatclient.EndpointProfile, 0, len(raw.Profiles))
	for i := range raw.Profiles {
		p, err := r.decodeProfile(&raw.Profiles[i])
		if err != nil {
			return errors.Wrapf(err, "%s: profile #%d", source, i+1)
		}
		if err := p.Validate(); err != nil {
			return errors.Wrap(err, source)
		}
		loaded = append(loaded, p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range loaded {
		if prev, ok := r.sources[p.Name]; ok {
			log.Debug().Str("profile", p.Name).Str("previous", prev).Str("source", source).Msg("profiles: overriding profile")
		}
		r.profiles[p.Name] = p
		r.sources[p.Name] = source
	}
	return nil
}

func (r *Registry) decodeProfile(node *yaml.Node) (chatclient.EndpointProfile, error) {
	var head struct {
		Extends string `yaml:"extends"`
	}
	if err := node.Decode(&head); err != nil {
		return chatclient.EndpointProfile{}, err
	}

	var p chatclient.EndpointProfile
	if head.Extends != "" {
		base, err := r.Get(head.Extends)
		if err != nil {
			return chatclient.EndpointProfile{}, errors.Wrap(err, "extends")
		}
		p = base
	}
	// Decoding on top of the base keeps every field the file leaves out.
	if err := node.Decode(&p); err != nil {
		return chatclient.EndpointProfile{}, err
	}
	return p, nil
}

// LoadFile loads one YAML file.
func (r *Registry) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open profiles file %s", path)
	}
	defer func() {
		_ = f.Close()
	}()
	return r.Load(path, f)
}

// LoadDir loads every *.yaml and *.yml file of dir in lexical order. A missing
// directory is not an error.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "read profiles dir %s", dir)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) Get(name string) (chatclient.EndpointProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[name]
	if !ok {
		return chatclient.EndpointProfile{}, errors.Errorf("unknown profile %q (known: %s)", name, strings.Join(r.namesLocked(), ", "))
	}
	return p, nil
}

// Source reports where a profile was defined.
func (r *Registry) Source(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[name]
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.profiles))
	for n := range r.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// List returns all profiles sorted by name.
func (r *Registry) List() []chatclient.EndpointProfile {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]chatclient.EndpointProfile, 0, len(names))
	for _, n := range names {
		out = append(out, r.profiles[n])
	}
	return out
}

// WriteYAML renders profiles in the same layout Load accepts.
func WriteYAML(w io.Writer, ps []chatclient.EndpointProfile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Profiles: ps}); err != nil {
		return errors.Wrap(err, "encode profiles")
	}
	return enc.Close()
}
