// Package config merges roost's project and global .roostrc files into the
// RouteTable snapshot the proxy dispatches against.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/roostdev/roost/pkg/types"
)

const rcFileName = ".roostrc"

var defaultPorts = []int{80, 443}

// ProjectPath returns the .roostrc path in the current working directory.
func ProjectPath() string {
	return rcFileName
}

// GlobalPath returns the .roostrc path under home (a Store's home dir).
func GlobalPath(home string) string {
	return filepath.Join(home, rcFileName)
}

// Load reads and parses an .roostrc file. A missing file returns an empty
// RCFile, not an error.
func Load(path string) (*types.RCFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &types.RCFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var rc types.RCFile
	if err := toml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &rc, nil
}

// Save atomically writes rc to path, initializing an empty [serve] table
// if it doesn't exist yet.
func Save(path string, rc *types.RCFile) error {
	data, err := toml.Marshal(rc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp %s: %w", path, err)
	}
	return nil
}

// Merger loads and merges the project and global .roostrc files.
type Merger struct {
	ProjectPath string
	GlobalPath  string
}

// New returns a Merger for the current project dir and the given store home.
func New(home string) *Merger {
	return &Merger{ProjectPath: ProjectPath(), GlobalPath: GlobalPath(home)}
}

// Merge loads both files and builds a RouteTable: project mappings
// overwrite global ones on domain collision, and ports are the set union
// of both (defaulting to {80,443} only when neither file specifies any).
func (m *Merger) Merge(generation uint64) (*types.RouteTable, error) {
	project, err := Load(m.ProjectPath)
	if err != nil {
		return nil, err
	}
	global, err := Load(m.GlobalPath)
	if err != nil {
		return nil, err
	}

	mappings := make(map[string]int)
	origins := make(map[string]types.Origin)
	for _, pm := range global.Serve.Mappings {
		mappings[pm.Domain] = pm.Port
		origins[pm.Domain] = types.OriginGlobal
	}
	for _, pm := range project.Serve.Mappings {
		mappings[pm.Domain] = pm.Port
		origins[pm.Domain] = types.OriginProject
	}

	portSet := make(map[int]bool)
	for _, p := range global.Serve.Ports {
		portSet[p] = true
	}
	for _, p := range project.Serve.Ports {
		portSet[p] = true
	}
	var ports []int
	if len(portSet) == 0 {
		ports = append(ports, defaultPorts...)
	} else {
		for p := range portSet {
			ports = append(ports, p)
		}
		sort.Ints(ports)
	}

	return &types.RouteTable{
		Mappings:   mappings,
		Origins:    origins,
		Ports:      ports,
		Generation: generation,
	}, nil
}

// AddMapping adds or replaces a domain→port mapping in the project or
// global .roostrc, creating the file if necessary.
func AddMapping(path string, domain string, port int) error {
	rc, err := Load(path)
	if err != nil {
		return err
	}
	replaced := false
	for i := range rc.Serve.Mappings {
		if rc.Serve.Mappings[i].Domain == domain {
			rc.Serve.Mappings[i].Port = port
			replaced = true
			break
		}
	}
	if !replaced {
		rc.Serve.Mappings = append(rc.Serve.Mappings, types.PortMapping{Domain: domain, Port: port})
	}
	return Save(path, rc)
}

// RemoveMapping deletes a domain's mapping from the given .roostrc.
func RemoveMapping(path string, domain string) error {
	rc, err := Load(path)
	if err != nil {
		return err
	}
	filtered := rc.Serve.Mappings[:0]
	for _, pm := range rc.Serve.Mappings {
		if pm.Domain != domain {
			filtered = append(filtered, pm)
		}
	}
	rc.Serve.Mappings = filtered
	return Save(path, rc)
}

// SetPorts replaces the port list in the given .roostrc.
func SetPorts(path string, ports []int) error {
	rc, err := Load(path)
	if err != nil {
		return err
	}
	rc.Serve.Ports = ports
	return Save(path, rc)
}
