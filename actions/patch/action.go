// Package patch deletes exactly one line from a text file in the workspace.
// The target line is named either by 1-based position or by a regexp that
// must match exactly one line. The rewrite goes to a sibling temp file that
// atomically replaces the original, so the file is never observed half
// written. Only the working copy changes; nothing is committed.
package patch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/verigate/verigate/internal/ctxlog"
	"github.com/verigate/verigate/internal/registry"
	"github.com/verigate/verigate/internal/workspace"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the patch action. Exactly one of Line and
// Match selects the doomed line.
type Input struct {
	File  string `hcl:"file"`
	Line  int64  `hcl:"line,optional"`
	Match string `hcl:"match,optional"`
}

// OnRunPatch rewrites the file with one line removed.
func OnRunPatch(ctx context.Context, ws *workspace.Workspace, input *Input) (cty.Value, error) {
	logger := ctxlog.From(ctx)

	if input.File == "" {
		return cty.NilVal, fmt.Errorf("patch requires a file")
	}
	if (input.Line > 0) == (input.Match != "") {
		return cty.NilVal, fmt.Errorf("patch requires exactly one of 'line' and 'match'")
	}
	if input.Line < 0 {
		return cty.NilVal, fmt.Errorf("line must be positive, got %d", input.Line)
	}

	path := input.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(ws.Dir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cty.NilVal, fmt.Errorf("reading %s: %w", input.File, err)
	}
	if len(data) == 0 {
		return cty.NilVal, fmt.Errorf("%s is empty, nothing to delete", input.File)
	}

	text := string(data)
	trailingNewline := strings.HasSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	if trailingNewline {
		lines = lines[:len(lines)-1]
	}

	target, err := selectLine(lines, input)
	if err != nil {
		return cty.NilVal, err
	}
	removed := lines[target]

	kept := make([]string, 0, len(lines)-1)
	kept = append(kept, lines[:target]...)
	kept = append(kept, lines[target+1:]...)

	out := strings.Join(kept, "\n")
	if trailingNewline && len(kept) > 0 {
		out += "\n"
	}

	if err := replaceFile(path, []byte(out)); err != nil {
		return cty.NilVal, err
	}

	logger.Info("Removed line from file.", "file", input.File, "line", target+1, "content", removed)
	return cty.ObjectVal(map[string]cty.Value{
		"file":         cty.StringVal(input.File),
		"removed_line": cty.StringVal(removed),
		"lines_before": cty.NumberIntVal(int64(len(lines))),
		"lines_after":  cty.NumberIntVal(int64(len(kept))),
	}), nil
}

// selectLine resolves the zero-based index of the line to delete.
func selectLine(lines []string, input *Input) (int, error) {
	if input.Line > 0 {
		if int(input.Line) > len(lines) {
			return 0, fmt.Errorf("line %d is beyond the end of the file (%d lines)", input.Line, len(lines))
		}
		return int(input.Line) - 1, nil
	}

	re, err := regexp.Compile(input.Match)
	if err != nil {
		return 0, fmt.Errorf("invalid match pattern: %w", err)
	}
	target := -1
	hits := 0
	for i, line := range lines {
		if re.MatchString(line) {
			hits++
			if target == -1 {
				target = i
			}
		}
	}
	switch {
	case hits == 0:
		return 0, fmt.Errorf("match %q matches no line", input.Match)
	case hits > 1:
		return 0, fmt.Errorf("match %q matches %d lines, expected exactly one", input.Match, hits)
	}
	return target, nil
}

// replaceFile writes content to a sibling temp file and renames it over the
// original, keeping the original's permission bits.
func replaceFile(path string, content []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	dir, base := filepath.Split(path)
	tmp, err := os.CreateTemp(dir, base+".rewrite-*")
	if err != nil {
		return fmt.Errorf("creating rewrite file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing rewrite file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing rewrite file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing rewrite file: %w", err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return fmt.Errorf("restoring file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("OnRunPatch", &registry.RegisteredAction{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		Fn:        OnRunPatch,
	})
}
