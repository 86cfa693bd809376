package local

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanta-labs/vanta/src/mocks"
)

func TestModelCatalog_RegisterAndResolve(t *testing.T) {
	catalog := NewModelCatalog()

	gen := new(mocks.MockLocalGenerator)
	gen.On("ModelName").Return("llama3.2:3b")
	catalog.Register(gen)

	got, err := catalog.Resolve("llama3.2:3b")
	require.NoError(t, err)
	assert.Same(t, gen, got)
	assert.Equal(t, []string{"llama3.2:3b"}, catalog.Names())
}

func TestModelCatalog_ResolveUnknown(t *testing.T) {
	catalog := NewModelCatalog()

	_, err := catalog.Resolve("phantom")

	assert.Error(t, err)
}

func TestModelCatalog_ReregisterReplaces(t *testing.T) {
	catalog := NewModelCatalog()

	first := new(mocks.MockLocalGenerator)
	first.On("ModelName").Return("m")
	second := new(mocks.MockLocalGenerator)
	second.On("ModelName").Return("m")

	catalog.Register(first)
	catalog.Register(second)

	got, err := catalog.Resolve("m")
	require.NoError(t, err)
	assert.Same(t, second, got)
}
