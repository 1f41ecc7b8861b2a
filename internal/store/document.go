// Package store implements on-disk persistence: document (".rsim") and
// sub-circuit template (".rsub") load/save, version compatibility
// checking, and the run-history repository (see runhistory.go).
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/relaylogic/relaysim/internal/model"
	"github.com/relaylogic/relaysim/internal/simerr"
	"github.com/relaylogic/relaysim/internal/subcircuit"
)

// EngineVersion is this build's document format version. Load rejects a
// document whose major component differs, and a minor component greater
// than this build's.
const EngineVersion = "1.0.0"

// Load reads and parses a ".rsim" document from path, rejecting a
// version-incompatible file before returning.
func Load(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, simerr.New(simerr.IO, "store.Load", err)
	}
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, simerr.New(simerr.IO, "store.Load", fmt.Errorf("parsing %s: %w", path, err))
	}
	if err := CheckVersion(doc.Version); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save writes doc to path as indented JSON.
func Save(path string, doc *model.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return simerr.New(simerr.IO, "store.Save", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return simerr.New(simerr.IO, "store.Save", err)
	}
	return nil
}

// CheckVersion enforces §6's compatibility rule: major must match
// exactly; the file's minor must not exceed this engine's; patch is
// unconstrained.
func CheckVersion(fileVersion string) error {
	fMajor, fMinor, _, err := parseSemVer(fileVersion)
	if err != nil {
		return simerr.New(simerr.VersionIncompatible, "store.CheckVersion", err)
	}
	eMajor, eMinor, _, _ := parseSemVer(EngineVersion)
	if fMajor != eMajor {
		return simerr.New(simerr.VersionIncompatible, "store.CheckVersion",
			fmt.Errorf("document major version %d incompatible with engine major version %d", fMajor, eMajor))
	}
	if fMinor > eMinor {
		return simerr.New(simerr.VersionIncompatible, "store.CheckVersion",
			fmt.Errorf("document minor version %d newer than engine minor version %d", fMinor, eMinor))
	}
	return nil
}

func parseSemVer(v string) (major, minor, patch int, err error) {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("malformed version %q", v)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, convErr := strconv.Atoi(p)
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("malformed version %q: %w", v, convErr)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

// LoadTemplate implements subcircuit.Loader by reading a ".rsub" file:
// the same document shape, required to carry a FOOTPRINT page.
func LoadTemplate(path string) (*subcircuit.Template, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &subcircuit.Template{SourcePath: path, Pages: doc.Pages}, nil
}
