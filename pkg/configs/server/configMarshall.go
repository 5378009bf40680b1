package server

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/server.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type ServerConfigMarshall struct {
	Port     int32                   `yaml:"port"`
	Radstash *RadstashConfigMarshall `yaml:"radstash"`
}

var _ Marshalled[*ServerConfig] = &ServerConfigMarshall{}

func (s *ServerConfigMarshall) trySeal(path string) *ServerConfig {
	return &ServerConfig{
		port:     required(s.Port, path+".port"),
		radstash: nonnil(s.Radstash, path+".radstash").trySeal(path + ".radstash"),
	}
}

// Configuration of radstash backing services.
//
// This type is marshalling value and mutable.
// Consider to use immutable version, `RadstashConfig`.
type RadstashConfigMarshall struct {
	Database         string                 `yaml:"database"`
	SchemaRepository string                 `yaml:"schemaRepository,omitempty"`
	Store            *StoreConfigMarshall   `yaml:"store"`
	Archive          *ArchiveConfigMarshall `yaml:"archive,omitempty"`
}

func (rm *RadstashConfigMarshall) trySeal(path string) *RadstashConfig {
	var archive *ArchiveConfig
	if rm.Archive != nil {
		archive = rm.Archive.trySeal(path + ".archive")
	}
	return &RadstashConfig{
		database:         required(rm.Database, path+".database"),
		schemaRepository: rm.SchemaRepository,
		store:            nonnil(rm.Store, path+".store").trySeal(path + ".store"),
		archive:          archive,
	}
}

type StoreConfigMarshall struct {
	Kind string `yaml:"kind,omitempty"`
	Root string `yaml:"root,omitempty"`
}

func (sm *StoreConfigMarshall) trySeal(path string) *StoreConfig {
	kind := sm.Kind
	if kind == "" {
		kind = StoreKindFilesystem
	}
	switch kind {
	case StoreKindFilesystem:
		return &StoreConfig{
			kind: kind,
			root: required(sm.Root, path+".root"),
		}
	case StoreKindMemory:
		return &StoreConfig{kind: kind}
	default:
		panic(path + ".kind should be \"" + StoreKindFilesystem + "\" or \"" + StoreKindMemory + "\"")
	}
}

type ArchiveConfigMarshall struct {
	Endpoint string `yaml:"endpoint"`
}

func (am *ArchiveConfigMarshall) trySeal(path string) *ArchiveConfig {
	return &ArchiveConfig{
		endpoint: required(am.Endpoint, path+".endpoint"),
	}
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func required[T comparable](v T, path string) T {
	var zero T
	if v == zero {
		panic(path + " is required")
	}
	return v
}
