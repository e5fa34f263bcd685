package event

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Payload is the YAML shape accepted by -event-file. Command-line flags
// override any field set here.
type Payload struct {
	Kind     string `yaml:"kind"`
	Ref      string `yaml:"ref"`
	Revision string `yaml:"revision"`
	Repo     string `yaml:"repo"`
}

// LoadPayload reads and strictly decodes an event payload file.
func LoadPayload(path string) (Payload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, fmt.Errorf("reading event file: %w", err)
	}
	var p Payload
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("parsing event file %s: %w", path, err)
	}
	return p, nil
}

// Merge lays flag values over the payload; non-empty flags win.
func (p Payload) Merge(kind, ref, revision, repo string) Payload {
	out := p
	if kind != "" {
		out.Kind = kind
	}
	if ref != "" {
		out.Ref = ref
	}
	if revision != "" {
		out.Revision = revision
	}
	if repo != "" {
		out.Repo = repo
	}
	return out
}

// Event validates the merged payload into a concrete event.
func (p Payload) Event() (Event, error) {
	if p.Kind == "" {
		return Event{}, fmt.Errorf("event kind is required (set -event or the kind field of -event-file)")
	}
	kind, err := ParseKind(p.Kind)
	if err != nil {
		return Event{}, err
	}
	return New(kind, p.Ref, p.Revision, p.Repo)
}
