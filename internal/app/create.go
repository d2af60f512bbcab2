package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"schemamigrator/internal/domain"
)

const batchTemplate = `# {{.Version}} {{.Name}}
# Steps run in order inside one transaction. Each step is skipped when the
# schema already matches it; backfills always run against NULL rows only.
name: {{.Name}}
steps:
  - kind: AddColumn
    table: {{.Table}}
    column: new_column
    type: VARCHAR(50)
  - kind: BackfillValue
    table: {{.Table}}
    column: new_column
    default: ""
`

var batchTmpl = template.Must(template.New("batch").Parse(batchTemplate))

// Create writes a batch skeleton named <version>_<name>.yaml into dir and
// returns its path.
func Create(dir, name, table string, now time.Time) (string, error) {
	if !domain.ValidIdentifier(name) {
		return "", errors.Errorf("invalid batch name %q", name)
	}
	if table == "" {
		table = "table_name"
	}
	if !domain.ValidIdentifier(table) {
		return "", errors.Errorf("invalid table name %q", table)
	}
	in := struct {
		Version string
		Name    string
		Table   string
	}{
		Version: now.Format("20060102150405"),
		Name:    name,
		Table:   table,
	}
	var out bytes.Buffer
	if err := batchTmpl.Execute(&out, in); err != nil {
		return "", errors.Wrap(err, "unable to execute template")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "unable to create batch dir")
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.yaml", in.Version, name))
	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return "", errors.Wrap(err, "unable to write batch file")
	}
	return path, nil
}
