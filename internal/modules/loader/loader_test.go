package loader

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestYAML = `
name: masterchef
version: 1.0.0
dataSources:
  - name: MasterChef
    source:
      address: "0x00000000000000000000000000000000000000c1"
      abi: MasterChef
      startBlock: 10736242
    mapping:
      eventHandlers:
        - event: Deposit(indexed address,indexed uint256,uint256)
          handler: handleDeposit
      callHandlers:
        - function: add(uint256,address,bool)
          handler: handleAddPool
`

func TestParseManifest(t *testing.T) {
	l := NewManifestLoader(zerolog.Nop())

	manifest, err := l.ParseManifest([]byte(manifestYAML))
	require.NoError(t, err)

	assert.Equal(t, "masterchef", manifest.Name)
	assert.Equal(t, "1.0.0", manifest.Version)
	require.Len(t, manifest.DataSources, 1)

	ds := manifest.DataSources[0]
	// Omitted fields fall back to defaults.
	assert.Equal(t, "ethereum/contract", ds.Kind)
	assert.Equal(t, "ethereum", ds.Network)
	assert.Equal(t, "ethereum/events", ds.Mapping.Kind)

	require.NotNil(t, ds.Source.StartBlock)
	assert.Equal(t, uint64(10736242), *ds.Source.StartBlock)

	require.Len(t, ds.Mapping.EventHandlers, 1)
	assert.Equal(t, "handleDeposit", ds.Mapping.EventHandlers[0].Handler)
	require.Len(t, ds.Mapping.CallHandlers, 1)
	assert.Equal(t, "add(uint256,address,bool)", ds.Mapping.CallHandlers[0].Function)
}

func TestParseManifestRejectsInvalid(t *testing.T) {
	l := NewManifestLoader(zerolog.Nop())

	_, err := l.ParseManifest([]byte("name: broken\nversion: 1.0.0\ndataSources: []\n"))
	assert.Error(t, err)

	_, err = l.ParseManifest([]byte("{not yaml"))
	assert.Error(t, err)
}
