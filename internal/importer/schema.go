package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Workspace is the top-level structure of an import file. Deals and
// activities point at contacts (and activities at deals) through refs that
// exist only inside the file.
type Workspace struct {
	Contacts   []ContactImport  `json:"contacts" yaml:"contacts" toml:"contacts"`
	Deals      []DealImport     `json:"deals" yaml:"deals" toml:"deals"`
	Activities []ActivityImport `json:"activities" yaml:"activities" toml:"activities"`
}

type ContactImport struct {
	Ref      string   `json:"ref" yaml:"ref" toml:"ref"`
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Email    string   `json:"email" yaml:"email" toml:"email"`
	Phone    string   `json:"phone,omitempty" yaml:"phone,omitempty" toml:"phone,omitempty"`
	Company  string   `json:"company,omitempty" yaml:"company,omitempty" toml:"company,omitempty"`
	Position string   `json:"position,omitempty" yaml:"position,omitempty" toml:"position,omitempty"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
}

// DealImport defines a deal. Stage defaults to the first stage and
// probability to the stage default.
type DealImport struct {
	Ref               string   `json:"ref,omitempty" yaml:"ref,omitempty" toml:"ref,omitempty"`
	Title             string   `json:"title" yaml:"title" toml:"title"`
	Value             float64  `json:"value" yaml:"value" toml:"value"`
	Stage             string   `json:"stage,omitempty" yaml:"stage,omitempty" toml:"stage,omitempty"`
	Probability       *int     `json:"probability,omitempty" yaml:"probability,omitempty" toml:"probability,omitempty"`
	ContactRef        string   `json:"contact_ref" yaml:"contact_ref" toml:"contact_ref"`
	ExpectedCloseDate *string  `json:"expected_close_date,omitempty" yaml:"expected_close_date,omitempty" toml:"expected_close_date,omitempty"`
	Notes             string   `json:"notes,omitempty" yaml:"notes,omitempty" toml:"notes,omitempty"`
	Tags              []string `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
}

type ActivityImport struct {
	Type            string `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Description     string `json:"description" yaml:"description" toml:"description"`
	Date            string `json:"date" yaml:"date" toml:"date"`
	DurationMinutes *int   `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty" toml:"duration_minutes,omitempty"`
	ContactRef      string `json:"contact_ref" yaml:"contact_ref" toml:"contact_ref"`
	DealRef         string `json:"deal_ref,omitempty" yaml:"deal_ref,omitempty" toml:"deal_ref,omitempty"`
}

// Format is an import file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the encoding from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	}
	return FormatJSON
}

// LoadWorkspace reads and parses an import file.
func LoadWorkspace(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseWorkspace(data, FormatFor(path))
}

func ParseWorkspace(data []byte, format Format) (*Workspace, error) {
	var ws Workspace
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&ws); err != nil {
			return nil, fmt.Errorf("parsing yaml import file: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &ws)
		if err != nil {
			return nil, fmt.Errorf("parsing toml import file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing toml import file: unknown key %q", undecoded[0].String())
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&ws); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	}
	return &ws, nil
}
