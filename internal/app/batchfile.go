package app

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"schemamigrator/internal/domain"
)

type batchFile struct {
	Name  string     `yaml:"name"`
	Steps []stepFile `yaml:"steps"`
}

type stepFile struct {
	Kind    string                 `yaml:"kind"`
	Table   string                 `yaml:"table"`
	Column  string                 `yaml:"column,omitempty"`
	NewName string                 `yaml:"new_name,omitempty"`
	Type    string                 `yaml:"type,omitempty"`
	Default interface{}            `yaml:"default,omitempty"`
	DDL     string                 `yaml:"ddl,omitempty"`
	Row     map[string]interface{} `yaml:"row,omitempty"`
}

// LoadBatchFile reads a YAML batch. The batch name falls back to the file
// name without extension.
func LoadBatchFile(path string) (domain.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Batch{}, errors.Wrap(err, "read batch file")
	}
	batch, err := ParseBatch(bytes.NewReader(data))
	if err != nil {
		return batch, errors.Wrap(err, path)
	}
	if batch.Name == "" {
		batch.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return batch, nil
}

func ParseBatch(r io.Reader) (domain.Batch, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f batchFile
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return domain.Batch{}, errors.New("empty batch file")
		}
		return domain.Batch{}, errors.Wrap(err, "decode batch")
	}
	batch := domain.Batch{Name: f.Name, Steps: make([]domain.Step, 0, len(f.Steps))}
	for i, s := range f.Steps {
		kind, err := domain.ParseStepKind(s.Kind)
		if err != nil {
			return batch, errors.Wrapf(err, "step %d", i)
		}
		batch.Steps = append(batch.Steps, domain.Step{
			Table:        s.Table,
			Kind:         kind,
			Column:       s.Column,
			NewName:      s.NewName,
			TypeSpec:     s.Type,
			DefaultValue: s.Default,
			DDLBody:      s.DDL,
			Row:          s.Row,
		})
	}
	return batch, nil
}

// MarshalBatch renders a batch in the format ParseBatch reads.
func MarshalBatch(batch domain.Batch) ([]byte, error) {
	f := batchFile{Name: batch.Name}
	for _, s := range batch.Steps {
		f.Steps = append(f.Steps, stepFile{
			Kind:    string(s.Kind),
			Table:   s.Table,
			Column:  s.Column,
			NewName: s.NewName,
			Type:    s.TypeSpec,
			Default: s.DefaultValue,
			DDL:     s.DDLBody,
			Row:     s.Row,
		})
	}
	out, err := yaml.Marshal(f)
	return out, errors.Wrap(err, "encode batch")
}
