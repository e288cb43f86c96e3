// Package codegen renders the Python snippet that reproduces a dispatch.
package codegen

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

const scriptTemplate = `from automation import {{.Name}}

def main():
    try:
        result = {{.Name}}()
        if result:
            print(result)
        else:
            print("{{.Name}} executed successfully.")
    except Exception as e:
        print(f"Error executing function: {e}")

if __name__ == "__main__":
    main()
`

// identifier matches a valid Python identifier.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidName is returned for names that are not identifiers.
var ErrInvalidName = errors.New("function name is not a valid identifier")

// Generator renders invocation scripts.
type Generator struct {
	tmpl *template.Template
}

// New parses the script template.
func New() *Generator {
	return &Generator{
		tmpl: template.Must(template.New("script").Parse(scriptTemplate)),
	}
}

// Render returns a script that imports and calls name.
func (g *Generator) Render(name string) (string, error) {
	if !identifier.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	var b strings.Builder
	if err := g.tmpl.Execute(&b, struct{ Name string }{name}); err != nil {
		return "", fmt.Errorf("failed to render script for %s: %w", name, err)
	}
	return b.String(), nil
}
