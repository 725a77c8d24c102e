package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wikiSvc "wikicore/internal/domain/services/wiki"
)

const sampleOwnership = `
resources:
  Minecraft Hub: [ana, bob]
  "  Quiet   Corner ": [carol]
`

func TestOwnershipDirectory_Load(t *testing.T) {
	dir := NewOwnershipDirectory(nil)
	require.NoError(t, dir.Load([]byte(sampleOwnership)))

	ctx := context.Background()
	assert.True(t, dir.Owns(ctx, "ana", "Minecraft Hub"))
	assert.True(t, dir.Owns(ctx, "bob", "minecraft hub"))
	assert.True(t, dir.Owns(ctx, "carol", "Quiet Corner"))
	assert.False(t, dir.Owns(ctx, "carol", "Minecraft Hub"))
	assert.False(t, dir.Owns(ctx, "ana", "Unknown Server"))
}

func TestOwnershipDirectory_LoadReplaces(t *testing.T) {
	dir := NewOwnershipDirectory(nil)
	require.NoError(t, dir.Load([]byte(sampleOwnership)))
	require.NoError(t, dir.Load([]byte("resources:\n  Other: [dave]\n")))

	assert.False(t, dir.Owns(context.Background(), "ana", "Minecraft Hub"))
	assert.True(t, dir.Owns(context.Background(), "dave", "other"))
}

func TestOwnershipDirectory_LoadErrors(t *testing.T) {
	dir := NewOwnershipDirectory(nil)
	assert.Error(t, dir.Load([]byte("resources: [not, a, map]")))
	assert.Error(t, dir.Load([]byte("resources:\n  \"  \": [ana]\n")))
}

func TestOwnershipDirectory_Grant(t *testing.T) {
	dir := NewOwnershipDirectory(nil)
	assert.False(t, dir.Owns(context.Background(), "ana", "Hub"))

	dir.Grant("Hub", "ana")
	dir.Grant("", "ana")
	dir.Grant("Hub", "")

	assert.True(t, dir.Owns(context.Background(), "ana", "HUB"))
	assert.False(t, dir.Owns(context.Background(), "", "Hub"))
}

func TestLoadOwnershipFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ownership.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleOwnership), 0o600))

	dir, err := LoadOwnershipFile(path, nil)
	require.NoError(t, err)

	var checker wikiSvc.OwnershipChecker = dir.Owns
	assert.True(t, checker(context.Background(), "ana", "Minecraft Hub"))

	_, err = LoadOwnershipFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
