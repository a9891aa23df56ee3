package observer

import (
	"fmt"
	"sort"

	"github.com/aalemi-dev/stdlib-events/message"
	"github.com/aalemi-dev/stdlib-events/observability"
)

// DefaultSource is the message source when none is configured.
const DefaultSource = "undefined"

// Config declares which models and application events are published.
type Config struct {
	// Source is the default origin tag of every message.
	// Default: "undefined"
	Source string `yaml:"source" env:"EVENTS_SOURCE" env-default:"undefined"`

	// Salt signs every message. It is usually filled from message.signature.salt.
	Salt string `yaml:"-" json:"-"` //nolint:gosec

	// Producers maps a model name to the message types it publishes and their topics:
	//
	//	producers:
	//	  Member:
	//	    member: members
	//
	// Every (type, topic) pair publishes created, updated and deleted events.
	Producers map[string]map[string]string `yaml:"producers"`

	// Listeners maps a message type to a topic. Application events named
	// "<type>.<event>" are published there.
	Listeners map[string]string `yaml:"listeners"`
}

// Template returns the message template for typ.
func (c Config) Template(typ string) message.Template {
	source := c.Source
	if source == "" {
		source = DefaultSource
	}
	return message.Template{Type: typ, Source: source, Salt: c.Salt}
}

// Table holds the observers built from a Config.
type Table struct {
	models    map[string][]*GenericObserver
	listeners []*CustomObserver
}

// TableOption configures every observer of a Table.
type TableOption func(*base)

// WithTableLogger sets the logger of every observer.
func WithTableLogger(logger Logger) TableOption {
	return func(b *base) { b.logger = logger }
}

// WithTableArchive sets the dead-letter archive of every observer.
func WithTableArchive(archive Archive) TableOption {
	return func(b *base) { b.archive = archive }
}

// WithTableObserver sets the operation observer of every observer.
func WithTableObserver(observer observability.Observer) TableOption {
	return func(b *base) { b.observer = observer }
}

// NewTable builds one GenericObserver per (model, type) pair and one CustomObserver
// per listener.
func NewTable(cfg Config, producer Producer, opts ...TableOption) (*Table, error) {
	if producer == nil {
		return nil, fmt.Errorf("observer table needs a producer")
	}

	t := &Table{models: make(map[string][]*GenericObserver, len(cfg.Producers))}
	for model, types := range cfg.Producers {
		for _, typ := range sortedKeys(types) {
			topic := types[typ]
			if topic == "" {
				return nil, fmt.Errorf("model %s: empty topic for type %s", model, typ)
			}
			o := NewGenericObserver(producer, cfg.Template(typ), topic)
			apply(&o.base, opts)
			t.models[model] = append(t.models[model], o)
		}
	}

	for _, typ := range sortedKeys(cfg.Listeners) {
		topic := cfg.Listeners[typ]
		if topic == "" {
			return nil, fmt.Errorf("listener %s: empty topic", typ)
		}
		o := NewCustomObserver(producer, cfg.Template(typ), topic)
		apply(&o.base, opts)
		t.listeners = append(t.listeners, o)
	}
	return t, nil
}

// Observers returns the observers registered for model, or nil.
func (t *Table) Observers(model string) []*GenericObserver {
	return t.models[model]
}

// Models returns the registered model names.
func (t *Table) Models() []string {
	names := make([]string, 0, len(t.models))
	for name := range t.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register subscribes every listener to "<type>.*" on d.
func (t *Table) Register(d *Dispatcher) error {
	for _, o := range t.listeners {
		if err := d.Listen(o.Type()+".*", o); err != nil {
			return err
		}
	}
	return nil
}

func apply(b *base, opts []TableOption) {
	for _, opt := range opts {
		opt(b)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
