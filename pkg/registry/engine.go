package registry

// Engine identifies the database system a ConnectionConfig targets.
// It determines which driver builds the pool and which typed accessor
// can retrieve it.
type Engine string

const (
	EnginePostgres  Engine = "postgres"
	EngineMySQL     Engine = "mysql"
	EngineSQLite    Engine = "sqlite"
	EngineSQLServer Engine = "sqlserver"
)

// Engines returns all supported engine kinds.
func Engines() []Engine {
	return []Engine{EnginePostgres, EngineMySQL, EngineSQLite, EngineSQLServer}
}

// Valid reports whether e is one of the supported engine kinds.
func (e Engine) Valid() bool {
	switch e {
	case EnginePostgres, EngineMySQL, EngineSQLite, EngineSQLServer:
		return true
	}
	return false
}

// SupportsSchema reports whether the engine has schema namespacing that
// the registry can select per pool. MySQL conflates schema and database,
// SQLite has no schemas, and SQL Server ties the default schema to the
// login rather than the connection, so only Postgres qualifies.
func (e Engine) SupportsSchema() bool {
	return e == EnginePostgres
}

func (e Engine) String() string {
	return string(e)
}
