package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

var (
	ErrFileNotFound     = errors.New("definitions file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("definitions file is empty")
	ErrNestedInclude    = errors.New("included files cannot include other files")
)

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} with environment
// values. Unset or empty variables expand to the default, or nothing.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		if val := os.Getenv(sub[1]); val != "" {
			return val
		}
		return sub[2]
	})
}

// Load reads a definitions file, resolves its includes and validates every
// entry.
func Load(path string) (*Definitions, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data, path, filepath.Dir(path))
}

// Parse parses definitions from data. Includes are resolved relative to the
// working directory.
func Parse(data []byte) (*Definitions, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	return parse(data, "", ".")
}

func parse(data []byte, source, baseDir string) (*Definitions, error) {
	name := source
	if name == "" {
		name = "<input>"
	}

	doc, err := decode(data, name)
	if err != nil {
		return nil, err
	}
	if err := ValidateDocument(doc, name); err != nil {
		return nil, err
	}

	var defs Definitions
	if err := yaml.Unmarshal([]byte(ExpandEnvVars(string(data))), &defs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, name, err)
	}
	if source != "" {
		defs.Sources = []string{source}
	}

	var entries []Entry
	for i, entry := range defs.Handlers {
		entry.Source = fmt.Sprintf("%s:handlers[%d]", name, i)
		if !entry.IsInclude() {
			entries = append(entries, entry)
			continue
		}
		included, files, err := loadInclude(entry, baseDir)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Source, err)
		}
		entries = append(entries, included...)
		defs.Sources = append(defs.Sources, files...)
	}
	defs.Handlers = entries

	var errs []error
	for i := range defs.Handlers {
		if err := defs.Handlers[i].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &defs, nil
}

func decode(data []byte, source string) (any, error) {
	var doc any
	if err := yaml.Unmarshal([]byte(ExpandEnvVars(string(data))), &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, source, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, source)
	}
	return doc, nil
}

// loadInclude loads the entries referenced by a file or files entry.
func loadInclude(entry Entry, baseDir string) ([]Entry, []string, error) {
	if entry.File != "" && entry.Files != "" {
		return nil, nil, errors.New("file and files are mutually exclusive")
	}

	var paths []string
	if entry.File != "" {
		paths = []string{resolvePath(baseDir, entry.File)}
	} else {
		matches, err := doublestar.FilepathGlob(resolvePath(baseDir, entry.Files))
		if err != nil {
			return nil, nil, fmt.Errorf("expanding glob pattern %q: %w", entry.Files, err)
		}
		slices.Sort(matches)
		paths = matches
	}

	var entries []Entry
	for _, path := range paths {
		loaded, err := loadIncludedFile(path)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, loaded...)
	}
	return entries, paths, nil
}

// loadIncludedFile reads a file holding a definitions document, a list of
// entries or a single entry.
func loadIncludedFile(path string) ([]Entry, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := decode(data, path)
	if err != nil {
		return nil, err
	}

	expanded := []byte(ExpandEnvVars(string(data)))
	var entries []Entry
	switch d := doc.(type) {
	case map[string]any:
		if _, ok := d["handlers"]; ok {
			if err := ValidateDocument(doc, path); err != nil {
				return nil, err
			}
			var defs Definitions
			if err := yaml.Unmarshal(expanded, &defs); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, path, err)
			}
			entries = defs.Handlers
			break
		}
		if err := ValidateDocument(map[string]any{"handlers": []any{d}}, path); err != nil {
			return nil, err
		}
		var entry Entry
		if err := yaml.Unmarshal(expanded, &entry); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, path, err)
		}
		entries = []Entry{entry}
	case []any:
		if err := ValidateDocument(map[string]any{"handlers": d}, path); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(expanded, &entries); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, path, err)
		}
	default:
		return nil, fmt.Errorf("%s: expected a mapping or a list of handlers", path)
	}

	for i := range entries {
		entries[i].Source = fmt.Sprintf("%s:handlers[%d]", path, i)
		if entries[i].IsInclude() {
			return nil, fmt.Errorf("%s: %w", entries[i].Source, ErrNestedInclude)
		}
	}
	return entries, nil
}

func readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return data, nil
}

func resolvePath(baseDir, target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	if strings.HasPrefix(target, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, target[2:])
		}
	}
	return filepath.Join(baseDir, target)
}
