package config

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/getmockd/mockwire/internal/matching"
)

// Version is the only supported definitions file version.
const Version = "1"

// RealisticDelay is the delay value that picks a random realistic delay.
const RealisticDelay = "realistic"

// Definitions is a parsed definitions file with its includes resolved.
type Definitions struct {
	Version  string  `yaml:"version,omitempty" json:"version,omitempty"`
	Handlers []Entry `yaml:"handlers" json:"handlers"`

	// Sources lists the files the definitions were read from, the root file
	// first.
	Sources []string `yaml:"-" json:"-"`
}

// Entry is one handler definition or an include.
type Entry struct {
	ID string `yaml:"id,omitempty" json:"id,omitempty"`

	File  string `yaml:"file,omitempty" json:"file,omitempty"`
	Files string `yaml:"files,omitempty" json:"files,omitempty"`

	REST    *RestMatch    `yaml:"rest,omitempty" json:"rest,omitempty"`
	GraphQL *GraphQLMatch `yaml:"graphql,omitempty" json:"graphql,omitempty"`

	When     string          `yaml:"when,omitempty" json:"when,omitempty"`
	Match    *MatchConfig    `yaml:"match,omitempty" json:"match,omitempty"`
	Response *ResponseConfig `yaml:"response,omitempty" json:"response,omitempty"`

	// Source is "file:index" of the entry, set while loading.
	Source string `yaml:"-" json:"-"`
}

// IsInclude reports whether the entry references other files.
func (e *Entry) IsInclude() bool {
	return e.File != "" || e.Files != ""
}

// RestMatch selects REST requests.
type RestMatch struct {
	// Method is an HTTP method; empty matches every method.
	Method string `yaml:"method,omitempty" json:"method,omitempty"`
	// Path is a URL mask such as /users/:id or https://api.example.com/*.
	Path string `yaml:"path" json:"path"`
}

// GraphQLMatch selects GraphQL operations.
type GraphQLMatch struct {
	// Operation is query, mutation or all. Empty means all.
	Operation string `yaml:"operation,omitempty" json:"operation,omitempty"`
	// Name is an exact operation name.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// NamePattern is a regular expression for operation names.
	NamePattern string `yaml:"namePattern,omitempty" json:"namePattern,omitempty"`
	// Endpoint is a URL mask restricting the GraphQL endpoint.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// MatchConfig holds request conditions beyond the URL and operation.
type MatchConfig struct {
	Headers      map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Query        map[string]string `yaml:"query,omitempty" json:"query,omitempty"`
	BodyContains string            `yaml:"bodyContains,omitempty" json:"bodyContains,omitempty"`
	BodyEquals   string            `yaml:"bodyEquals,omitempty" json:"bodyEquals,omitempty"`
	BodyPattern  string            `yaml:"bodyPattern,omitempty" json:"bodyPattern,omitempty"`
	JSONPath     map[string]any    `yaml:"jsonPath,omitempty" json:"jsonPath,omitempty"`
}

func (m *MatchConfig) conditions() matching.Conditions {
	if m == nil {
		return matching.Conditions{}
	}
	return matching.Conditions{
		Headers:      m.Headers,
		Query:        m.Query,
		BodyContains: m.BodyContains,
		BodyEquals:   m.BodyEquals,
		BodyPattern:  m.BodyPattern,
		JSONPath:     m.JSONPath,
	}
}

// ResponseConfig describes the mocked response. At most one of Body, JSON
// and XML may be set; Data and Errors apply to GraphQL handlers.
type ResponseConfig struct {
	Status     int               `yaml:"status,omitempty" json:"status,omitempty"`
	StatusText string            `yaml:"statusText,omitempty" json:"statusText,omitempty"`
	Headers    map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Cookies    map[string]string `yaml:"cookies,omitempty" json:"cookies,omitempty"`

	Body string `yaml:"body,omitempty" json:"body,omitempty"`
	JSON any    `yaml:"json,omitempty" json:"json,omitempty"`
	XML  string `yaml:"xml,omitempty" json:"xml,omitempty"`

	Data   any `yaml:"data,omitempty" json:"data,omitempty"`
	Errors any `yaml:"errors,omitempty" json:"errors,omitempty"`

	// Delay is a Go duration such as 250ms, or "realistic".
	Delay       string `yaml:"delay,omitempty" json:"delay,omitempty"`
	Once        bool   `yaml:"once,omitempty" json:"once,omitempty"`
	Passthrough bool   `yaml:"passthrough,omitempty" json:"passthrough,omitempty"`
}

// ErrInvalidEntry is wrapped by entry consistency errors.
var ErrInvalidEntry = errors.New("invalid handler definition")

// Validate checks an inline entry for consistency. Includes are resolved
// before validation and are rejected here.
func (e *Entry) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch {
	case e.IsInclude():
		add("unresolved include")
	case e.REST != nil && e.GraphQL != nil:
		add("rest and graphql are mutually exclusive")
	case e.REST == nil && e.GraphQL == nil:
		add("one of rest, graphql, file or files is required")
	}

	if e.REST != nil {
		if e.REST.Path == "" {
			add("rest.path: required")
		}
		if m := e.REST.Method; m != "" && strings.ContainsAny(m, " \t/") {
			add("rest.method: invalid method %q", m)
		}
	}

	if g := e.GraphQL; g != nil {
		switch op := strings.ToLower(g.Operation); op {
		case "query", "mutation":
		case "", "all":
			if g.Name != "" || g.NamePattern != "" {
				add("graphql: name and namePattern require operation query or mutation")
			}
		default:
			add("graphql.operation: must be query, mutation or all, got %q", g.Operation)
		}
		if g.Name != "" && g.NamePattern != "" {
			add("graphql: name and namePattern are mutually exclusive")
		}
		if g.NamePattern != "" {
			if _, err := regexp.Compile(g.NamePattern); err != nil {
				add("graphql.namePattern: %v", err)
			}
		}
	}

	if _, err := matching.Compile(e.Match.conditions()); err != nil {
		add("match: %v", err)
	}
	if e.When != "" {
		if _, err := compileWhen(e.When); err != nil {
			add("when: %v", err)
		}
	}

	if e.Response == nil {
		add("response: required")
	} else {
		errs = append(errs, e.Response.validate(e.GraphQL != nil)...)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrInvalidEntry, e.describe(), errors.Join(errs...))
}

func (r *ResponseConfig) validate(graphql bool) []error {
	var errs []error
	if r.Passthrough && r.hasContent() {
		errs = append(errs, errors.New("response.passthrough cannot be combined with a response"))
	}
	if r.Status != 0 && (r.Status < 100 || r.Status > 999) {
		errs = append(errs, fmt.Errorf("response.status: %d out of range", r.Status))
	}

	bodies := 0
	for _, set := range []bool{r.Body != "", r.JSON != nil, r.XML != ""} {
		if set {
			bodies++
		}
	}
	if bodies > 1 {
		errs = append(errs, errors.New("response: body, json and xml are mutually exclusive"))
	}
	if !graphql && (r.Data != nil || r.Errors != nil) {
		errs = append(errs, errors.New("response: data and errors require a graphql handler"))
	}

	if r.Delay != "" && r.Delay != RealisticDelay {
		d, err := time.ParseDuration(r.Delay)
		if err != nil {
			errs = append(errs, fmt.Errorf("response.delay: %w", err))
		} else if d < 0 {
			errs = append(errs, fmt.Errorf("response.delay: negative duration %s", d))
		}
	}
	for name, value := range r.Cookies {
		if err := (&http.Cookie{Name: name, Value: value}).Valid(); err != nil {
			errs = append(errs, fmt.Errorf("response.cookies: %w", err))
		}
	}
	return errs
}

func (r *ResponseConfig) hasContent() bool {
	return r.Status != 0 || r.StatusText != "" || len(r.Headers) > 0 || len(r.Cookies) > 0 ||
		r.Body != "" || r.JSON != nil || r.XML != "" || r.Data != nil || r.Errors != nil || r.Delay != ""
}

func (e *Entry) describe() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
	}
	if e.ID != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("(" + e.ID + ")")
	}
	if b.Len() == 0 {
		return "entry"
	}
	return b.String()
}
