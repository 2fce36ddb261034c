package surface

import (
	"encoding/json"
	"io"

	"github.com/buildshortcut/shortcut/pkg/scope"
)

// JSONRenderer marshals a Result to indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(w io.Writer, result *scope.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(View(result))
}
