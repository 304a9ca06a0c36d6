package toolexecutor

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type catalogEntry struct {
	def    ToolDefinition
	schema Schema
}

// Catalog holds immutable tool definitions. It is filled once at startup and
// read concurrently afterwards.
type Catalog struct {
	tools     map[string]*catalogEntry
	validator Validator
	defaults  ToolDefaults
	events    *EventBus
	sealed    bool
	mu        sync.RWMutex
}

// ToolDefaults fills zero-valued limits on registration
type ToolDefaults struct {
	RateLimit int
	Timeout   time.Duration
}

// NewCatalog creates an empty catalog
func NewCatalog(validator Validator, defaults ToolDefaults, events *EventBus) *Catalog {
	if validator == nil {
		validator = NewJSONSchemaValidator()
	}
	if defaults.RateLimit <= 0 {
		defaults.RateLimit = DefaultRateLimit
	}
	if defaults.Timeout <= 0 {
		defaults.Timeout = DefaultTimeout
	}
	return &Catalog{
		tools:     make(map[string]*catalogEntry),
		validator: validator,
		defaults:  defaults,
		events:    events,
	}
}

// Register adds a tool. It fails with a configuration error if the name is
// taken, the definition is malformed, or the catalog is sealed; the catalog is
// unchanged on failure.
func (c *Catalog) Register(def ToolDefinition) error {
	def, err := c.normalize(def)
	if err != nil {
		return err
	}

	schema, err := c.validator.Compile(def.Parameters)
	if err != nil {
		return &ToolError{Kind: KindConfiguration, Tool: def.Name, Message: "invalid tool definition: " + err.Error(), Err: err}
	}

	c.mu.Lock()
	if c.sealed {
		c.mu.Unlock()
		return newConfigurationError("catalog is sealed, cannot register tool %s", def.Name)
	}
	if _, exists := c.tools[def.Name]; exists {
		c.mu.Unlock()
		return newConfigurationError("tool already registered: %s", def.Name)
	}
	c.tools[def.Name] = &catalogEntry{def: def, schema: schema}
	c.mu.Unlock()

	log.Info().
		Str("tool", def.Name).
		Str("category", string(def.Category)).
		Str("security_level", string(def.SecurityLevel)).
		Int("rate_limit", def.RateLimit).
		Dur("timeout", def.Timeout).
		Msg("Tool registered")

	c.events.Publish(Event{
		Type:     EventToolRegistered,
		ToolName: def.Name,
		Data: map[string]interface{}{
			"category":       string(def.Category),
			"security_level": string(def.SecurityLevel),
		},
	})

	return nil
}

// normalize validates a definition and fills defaults on a private copy
func (c *Catalog) normalize(def ToolDefinition) (ToolDefinition, error) {
	if def.Name == "" {
		return def, newConfigurationError("invalid tool definition: tool name cannot be empty")
	}
	if def.Description == "" {
		return def, newConfigurationError("invalid tool definition: tool description cannot be empty for %s", def.Name)
	}
	if def.Handler == nil {
		return def, newConfigurationError("invalid tool definition: tool handler cannot be nil for %s", def.Name)
	}
	if def.RateLimit < 0 {
		return def, newConfigurationError("invalid tool definition: negative rate limit for %s", def.Name)
	}
	if def.Timeout < 0 {
		return def, newConfigurationError("invalid tool definition: negative timeout for %s", def.Name)
	}

	if def.Category == "" {
		def.Category = CategoryGeneral
	}
	category, err := ParseCategory(string(def.Category))
	if err != nil {
		return def, newConfigurationError("invalid tool definition: %v", err)
	}
	def.Category = category

	if def.SecurityLevel == "" {
		def.SecurityLevel = LevelBasic
	}
	level, err := ParseSecurityLevel(string(def.SecurityLevel))
	if err != nil {
		return def, newConfigurationError("invalid tool definition: %v", err)
	}
	def.SecurityLevel = level

	if def.RateLimit == 0 {
		def.RateLimit = c.defaults.RateLimit
	}
	if def.Timeout == 0 {
		def.Timeout = c.defaults.Timeout
	}

	def.Parameters = append([]ToolParameter(nil), def.Parameters...)

	return def, nil
}

// Seal rejects every later registration
func (c *Catalog) Seal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
}

// Get returns a copy of the tool definition
func (c *Catalog) Get(name string) (ToolDefinition, bool) {
	entry := c.entry(name)
	if entry == nil {
		return ToolDefinition{}, false
	}
	return entry.def.clone(), true
}

// Schema returns the compiled argument schema for a tool
func (c *Catalog) Schema(name string) (Schema, bool) {
	entry := c.entry(name)
	if entry == nil {
		return nil, false
	}
	return entry.schema, true
}

func (c *Catalog) entry(name string) *catalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tools[name]
}

// List returns every definition the caller may access, sorted by name
func (c *Catalog) List(role string, level SecurityLevel) []ToolDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make([]ToolDefinition, 0, len(c.tools))
	for _, entry := range c.tools {
		if CanAccess(entry.def.SecurityLevel, level, role) {
			defs = append(defs, entry.def.clone())
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	return defs
}

// Names returns all registered tool names, sorted
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Len returns the number of registered tools
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tools)
}

// countBy tallies tools by category and by security level
func (c *Catalog) countBy() (map[ToolCategory]int, map[SecurityLevel]int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	categories := make(map[ToolCategory]int)
	levels := make(map[SecurityLevel]int)
	for _, entry := range c.tools {
		categories[entry.def.Category]++
		levels[entry.def.SecurityLevel]++
	}
	return categories, levels
}

func (d ToolDefinition) clone() ToolDefinition {
	d.Parameters = append([]ToolParameter(nil), d.Parameters...)
	return d
}
