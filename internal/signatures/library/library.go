// Package library loads curated signature sets from YAML files.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

// File is the on-disk library layout.
type File struct {
	Signatures []Entry `yaml:"signatures"`
}

// Entry is one library signature.
type Entry struct {
	Name          string                      `yaml:"name"`
	EquipmentType string                      `yaml:"equipment_type"`
	Source        string                      `yaml:"source"`
	Confidence    *int                        `yaml:"confidence"`
	Points        []signatures.SignaturePoint `yaml:"points"`
}

// Result reports what an import did.
type Result struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

// Parse decodes a library and converts entries to drafts. Every entry is
// validated before any is returned.
func Parse(r io.Reader) ([]sigapp.Draft, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: library: %v", signatures.ErrValidation, err)
	}
	drafts := make([]sigapp.Draft, 0, len(file.Signatures))
	for i, entry := range file.Signatures {
		draft, err := entry.draft()
		if err != nil {
			return nil, fmt.Errorf("library entry %d (%s): %w", i, entry.Name, err)
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

// LoadFile parses the library at path.
func LoadFile(path string) ([]sigapp.Draft, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func (e Entry) draft() (sigapp.Draft, error) {
	source := signatures.SourceUserValidated
	if e.Source != "" {
		parsed, err := signatures.ParseSource(e.Source)
		if err != nil {
			return sigapp.Draft{}, err
		}
		source = parsed
	}
	list := make([]signatures.SignaturePoint, 0, len(e.Points))
	for _, p := range e.Points {
		if _, err := points.ParseKind(string(p.Kind)); err != nil {
			return sigapp.Draft{}, fmt.Errorf("%w: point %q has kind %q", signatures.ErrValidation, p.Name, p.Kind)
		}
		if err := points.ValidateUnit(p.Unit); err != nil {
			return sigapp.Draft{}, fmt.Errorf("%w: point %q unit %q", signatures.ErrValidation, p.Name, p.Unit)
		}
		list = append(list, p)
	}
	draft := sigapp.Draft{
		Name:          strings.TrimSpace(e.Name),
		EquipmentType: e.EquipmentType,
		Points:        signatures.DedupePoints(list),
		Source:        source,
		Confidence:    e.Confidence,
	}
	if err := signatures.ValidateName(draft.Name); err != nil {
		return sigapp.Draft{}, err
	}
	if err := signatures.ValidatePoints(draft.Points); err != nil {
		return sigapp.Draft{}, err
	}
	return draft, nil
}

// Creator is the registry subset used by Import.
type Creator interface {
	List(ctx context.Context) ([]signatures.Signature, error)
	Create(ctx context.Context, draft sigapp.Draft) (*signatures.Signature, error)
}

// Import creates every draft whose name and equipment type are not already
// registered. Re-importing the same library is a no-op.
func Import(ctx context.Context, registry Creator, drafts []sigapp.Draft) (Result, error) {
	result := Result{Created: []string{}, Skipped: []string{}}
	existing, err := registry.List(ctx)
	if err != nil {
		return result, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, sig := range existing {
		seen[identity(sig.Name, sig.EquipmentType)] = struct{}{}
	}
	for _, draft := range drafts {
		key := identity(draft.Name, draft.EquipmentType)
		if _, ok := seen[key]; ok {
			result.Skipped = append(result.Skipped, draft.Name)
			continue
		}
		created, err := registry.Create(ctx, draft)
		if err != nil {
			return result, fmt.Errorf("import %s: %w", draft.Name, err)
		}
		seen[key] = struct{}{}
		result.Created = append(result.Created, created.ID)
	}
	return result, nil
}

func identity(name, equipmentType string) string {
	return equipmentType + "\x00" + name
}
