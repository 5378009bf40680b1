package server

// Configuration for the radstash server process.
//
// to get `ServerConfig` instance, use `server.LoadServerConfig()` or `server.Unmarshal()` .
type ServerConfig struct {
	port     int32
	radstash *RadstashConfig
}

func (c *ServerConfig) Port() int32 {
	return c.port
}

func (c *ServerConfig) Radstash() *RadstashConfig {
	return c.radstash
}

// Configuration for radstash backing services.
type RadstashConfig struct {
	database         string
	schemaRepository string
	store            *StoreConfig
	archive          *ArchiveConfig
}

// Connection string for database.
func (r *RadstashConfig) Database() string {
	return r.database
}

// Directory holding versioned schema definitions. Optional.
func (r *RadstashConfig) SchemaRepository() string {
	return r.schemaRepository
}

// Configuration for the document store.
func (r *RadstashConfig) Store() *StoreConfig {
	return r.store
}

// Configuration for the DICOM archive. nil when no archive is configured.
func (r *RadstashConfig) Archive() *ArchiveConfig {
	return r.archive
}

const (
	StoreKindFilesystem = "filesystem"
	StoreKindMemory     = "memory"
)

// Setting for document storage.
type StoreConfig struct {
	kind string
	root string
}

// Which store backend should be used. "filesystem" or "memory".
func (s *StoreConfig) Kind() string {
	return s.kind
}

// Directory where documents are kept. Meaningful for the filesystem store only.
func (s *StoreConfig) Root() string {
	return s.root
}

type ArchiveConfig struct {
	endpoint string
}

// Base URL of the QIDO-RS service.
func (a *ArchiveConfig) Endpoint() string {
	return a.endpoint
}
