package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roostdev/roost/pkg/types"
)

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	rc, err := Load(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, rc.Serve.Mappings)
	assert.Empty(t, rc.Serve.Ports)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".roostrc")
	rc := &types.RCFile{Serve: types.RCServe{
		Ports:    []int{80, 443, 8443},
		Mappings: []types.PortMapping{{Domain: "api.local", Port: 3000}},
	}}
	require.NoError(t, Save(path, rc))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, rc.Serve.Ports, loaded.Serve.Ports)
	assert.Equal(t, rc.Serve.Mappings, loaded.Serve.Mappings)
}

func TestMergeProjectOverridesGlobalMapping(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.roostrc")
	project := filepath.Join(dir, "project.roostrc")

	require.NoError(t, Save(global, &types.RCFile{Serve: types.RCServe{
		Mappings: []types.PortMapping{{Domain: "api.local", Port: 3000}},
	}}))
	require.NoError(t, Save(project, &types.RCFile{Serve: types.RCServe{
		Mappings: []types.PortMapping{{Domain: "api.local", Port: 4000}},
	}}))

	m := &Merger{ProjectPath: project, GlobalPath: global}
	rt, err := m.Merge(1)
	require.NoError(t, err)

	assert.Equal(t, 4000, rt.Mappings["api.local"])
	assert.Equal(t, types.OriginProject, rt.Origins["api.local"])
}

func TestMergePortsUnionSkipsDefaultWhenOneFileHasPorts(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.roostrc")
	project := filepath.Join(dir, "project.roostrc")

	require.NoError(t, Save(global, &types.RCFile{Serve: types.RCServe{Ports: []int{8443}}}))
	require.NoError(t, Save(project, &types.RCFile{}))

	m := &Merger{ProjectPath: project, GlobalPath: global}
	rt, err := m.Merge(1)
	require.NoError(t, err)
	assert.Equal(t, []int{8443}, rt.Ports)
}

func TestMergeDefaultsPortsWhenNoneSpecified(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.roostrc")
	project := filepath.Join(dir, "project.roostrc")

	m := &Merger{ProjectPath: project, GlobalPath: global}
	rt, err := m.Merge(1)
	require.NoError(t, err)
	assert.Equal(t, []int{80, 443}, rt.Ports)
}

func TestAddAndRemoveMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".roostrc")

	require.NoError(t, AddMapping(path, "api.local", 3000))
	require.NoError(t, AddMapping(path, "api.local", 3001))

	rc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rc.Serve.Mappings, 1)
	assert.Equal(t, 3001, rc.Serve.Mappings[0].Port)

	require.NoError(t, RemoveMapping(path, "api.local"))
	rc, err = Load(path)
	require.NoError(t, err)
	assert.Empty(t, rc.Serve.Mappings)
}

func TestSetPorts(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".roostrc")
	require.NoError(t, SetPorts(path, []int{80, 443, 9000}))

	rc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{80, 443, 9000}, rc.Serve.Ports)
}
