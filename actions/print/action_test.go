package print

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/workspace"
)

func loggedContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.With(context.Background(), logger), &buf
}

func provision(t *testing.T) *workspace.Workspace {
	t.Helper()
	ws, err := workspace.Provision(context.Background(), "print-test", workspace.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close(context.Background()) })
	return ws
}

func TestOnRunPrint_LogsPairsSortedByKey(t *testing.T) {
	ctx, buf := loggedContext(t)
	ws := provision(t)

	out, err := OnRunPrint(ctx, ws, &Input{Value: map[string]string{
		"zeta":  "last",
		"alpha": "first",
	}})

	require.NoError(t, err)
	require.Equal(t, cty.NilVal, out)

	logged := buf.String()
	require.Contains(t, logged, `alpha = \"first\"`)
	require.Contains(t, logged, `zeta = \"last\"`)
	require.Less(t, strings.Index(logged, "alpha"), strings.Index(logged, "zeta"))
}

func TestOnRunPrint_EmptyMap(t *testing.T) {
	ctx, buf := loggedContext(t)
	ws := provision(t)

	_, err := OnRunPrint(ctx, ws, &Input{})

	require.NoError(t, err)
	require.Contains(t, buf.String(), "(empty)")
}
