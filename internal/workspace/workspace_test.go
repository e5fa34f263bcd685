package workspace

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProvision_CreatesDirectory(t *testing.T) {
	ws, err := Provision(context.Background(), "0f94b2aa-1111-2222-3333-444455556666", Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(ws.Dir) })

	info, err := os.Stat(ws.Dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
	require.Contains(t, ws.Dir, "verigate-0f94b2aa")
}

func TestClose_RemovesDirectory(t *testing.T) {
	ws, err := Provision(context.Background(), "run", Options{})
	require.NoError(t, err)

	require.NoError(t, ws.Close(context.Background()))

	_, err = os.Stat(ws.Dir)
	require.True(t, os.IsNotExist(err))
}

func TestClose_KeepLeavesDirectory(t *testing.T) {
	ws, err := Provision(context.Background(), "run", Options{Keep: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(ws.Dir) })

	require.NoError(t, ws.Close(context.Background()))

	info, err := os.Stat(ws.Dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestClose_RunsCleanupsInLIFOOrder(t *testing.T) {
	ws, err := Provision(context.Background(), "run", Options{})
	require.NoError(t, err)

	var order []string
	ws.PushCleanup(func() { order = append(order, "first") })
	ws.PushCleanup(func() { order = append(order, "second") })

	require.NoError(t, ws.Close(context.Background()))

	require.Equal(t, []string{"second", "first"}, order)
}

func TestEnviron_AppendsSortedWorkflowPairs(t *testing.T) {
	ws, err := Provision(context.Background(), "run", Options{
		Env: map[string]string{"ZZ_LAST": "1", "AA_FIRST": "2"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close(context.Background()) })

	env := ws.Environ()

	require.GreaterOrEqual(t, len(env), 2)
	require.Equal(t, "AA_FIRST=2", env[len(env)-2])
	require.Equal(t, "ZZ_LAST=1", env[len(env)-1])
}
