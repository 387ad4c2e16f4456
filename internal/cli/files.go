package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/checklist/internal/codec"
	"github.com/aretw0/checklist/pkg/domain"
	"github.com/google/uuid"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// ReadOptions controls how checklist files are read.
type ReadOptions struct {
	// GenerateID assigns a random id to checklists that have none.
	GenerateID bool
	// SiteID overrides the file's siteId when set.
	SiteID string
}

// ReadChecklist loads a checklist from path, or from stdin when path is "" or "-".
// JSON files decode as JSON; anything else is read as YAML, which also accepts JSON.
func ReadChecklist(path string, stdin io.Reader, opts ReadOptions) (*domain.StartRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return nil, fmt.Errorf("no checklist provided (stdin is a terminal); pass a file or pipe one in")
		}
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read checklist: %w", err)
	}

	// 1. Generic map, so absence stays distinguishable from zero values
	var m map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, domain.Malformed("", err)
	}
	if m == nil {
		return nil, domain.Malformed("", fmt.Errorf("checklist is empty"))
	}

	// 2. Generated id
	if opts.GenerateID && m["id"] == nil {
		m["id"] = uuid.NewString()
	}

	// 3. Shared validation with the bus path
	req, err := codec.DecodeStartMap(m)
	if err != nil {
		return nil, err
	}
	if opts.SiteID != "" {
		req.SiteID = opts.SiteID
	}
	return req, nil
}
