package dbclient

import (
	"qnotes/internal/domain"
)

// FallbackQuery is offered when the backend is unknown.
const FallbackQuery = "SELECT 1;"

// ClientBinaries names the CLI executable each adapter invokes.
type ClientBinaries struct {
	SQLite     string `yaml:"sqlite" mapstructure:"sqlite"`
	PostgreSQL string `yaml:"postgresql" mapstructure:"postgresql"`
	ClickHouse string `yaml:"clickhouse" mapstructure:"clickhouse"`
	Redis      string `yaml:"redis" mapstructure:"redis"`
	MySQL      string `yaml:"mysql" mapstructure:"mysql"`
}

// DefaultClients returns the stock CLI names, resolved through $PATH at run time.
func DefaultClients() ClientBinaries {
	return ClientBinaries{
		SQLite:     "sqlite3",
		PostgreSQL: "psql",
		ClickHouse: "clickhouse-client",
		Redis:      "redis-cli",
		MySQL:      "mysql",
	}
}

// withDefaults fills empty entries from DefaultClients.
func (c ClientBinaries) withDefaults() ClientBinaries {
	d := DefaultClients()
	if c.SQLite == "" {
		c.SQLite = d.SQLite
	}
	if c.PostgreSQL == "" {
		c.PostgreSQL = d.PostgreSQL
	}
	if c.ClickHouse == "" {
		c.ClickHouse = d.ClickHouse
	}
	if c.Redis == "" {
		c.Redis = d.Redis
	}
	if c.MySQL == "" {
		c.MySQL = d.MySQL
	}
	return c
}

// Registry is the ordered table of backend adapters.
// Detection is first-match-wins, so registration order matters.
type Registry struct {
	sources []domain.Source
}

// NewRegistry builds the canonical registry: sqlite, clickhouse, postgresql, redis, mysql.
func NewRegistry(clients ClientBinaries) *Registry {
	clients = clients.withDefaults()
	return &Registry{
		sources: []domain.Source{
			SQLiteSource{Binary: clients.SQLite},
			ClickHouseSource{Binary: clients.ClickHouse},
			PostgresSource{Binary: clients.PostgreSQL},
			RedisSource{Binary: clients.Redis},
			MySQLSource{Binary: clients.MySQL},
		},
	}
}

// Detect returns the kind of the first adapter matching uri,
// or BackendUnknown for an empty or unmatched uri.
func (r *Registry) Detect(uri string) domain.BackendKind {
	if uri == "" {
		return domain.BackendUnknown
	}
	for _, s := range r.sources {
		if s.Matches(uri) {
			return s.Name()
		}
	}
	return domain.BackendUnknown
}

// Get returns the adapter registered for kind.
func (r *Registry) Get(kind domain.BackendKind) (domain.Source, bool) {
	for _, s := range r.sources {
		if s.Name() == kind {
			return s, true
		}
	}
	return nil, false
}

// DefaultQuery returns the adapter's sample query, or FallbackQuery.
func (r *Registry) DefaultQuery(kind domain.BackendKind) string {
	if s, ok := r.Get(kind); ok {
		return s.DefaultQuery()
	}
	return FallbackQuery
}

// Sources returns the adapters in detection order.
func (r *Registry) Sources() []domain.Source {
	out := make([]domain.Source, len(r.sources))
	copy(out, r.sources)
	return out
}
