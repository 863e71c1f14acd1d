package core

// Manifest defines the structure of a module manifest (inspired by subgraph manifests)
type Manifest struct {
	Name        string                 `yaml:"name"`
	Version     string                 `yaml:"version"`
	Description string                 `yaml:"description,omitempty"`
	DataSources []DataSource           `yaml:"dataSources"`
	Context     map[string]interface{} `yaml:"context,omitempty"`
}

// DataSource defines a contract to watch
type DataSource struct {
	Kind    string            `yaml:"kind"`    // "ethereum/contract"
	Name    string            `yaml:"name"`    // Friendly name
	Network string            `yaml:"network"` // "ethereum"
	Source  DataSourceSource  `yaml:"source"`
	Mapping DataSourceMapping `yaml:"mapping"`
}

// DataSourceSource defines the contract source information
type DataSourceSource struct {
	Address    *string `yaml:"address,omitempty"`
	ABI        string  `yaml:"abi"`
	StartBlock *uint64 `yaml:"startBlock,omitempty"`
}

// DataSourceMapping defines how to handle events and calls from this source
type DataSourceMapping struct {
	Kind          string         `yaml:"kind"` // "ethereum/events"
	Entities      []string       `yaml:"entities"`
	EventHandlers []EventHandler `yaml:"eventHandlers"`
	CallHandlers  []CallHandler  `yaml:"callHandlers,omitempty"`
}

// EventHandler defines how to handle a specific event
type EventHandler struct {
	Event   string `yaml:"event"`   // e.g. "Transfer(indexed address,indexed address,uint256)"
	Handler string `yaml:"handler"` // Handler function name
}

// CallHandler defines how to handle a contract function call
type CallHandler struct {
	Function string `yaml:"function"`
	Handler  string `yaml:"handler"`
}

// ValidateManifest validates a manifest structure
func (m *Manifest) ValidateManifest() error {
	if m.Name == "" {
		return ErrInvalidManifest{Field: "name", Reason: "name is required"}
	}

	if m.Version == "" {
		return ErrInvalidManifest{Field: "version", Reason: "version is required"}
	}

	if len(m.DataSources) == 0 {
		return ErrInvalidManifest{Field: "dataSources", Reason: "at least one data source is required"}
	}

	for _, ds := range m.DataSources {
		if err := ds.validate(); err != nil {
			return ErrInvalidManifest{Field: "dataSources", Reason: err.Error()}
		}
	}

	return nil
}

func (ds *DataSource) validate() error {
	if ds.Kind == "" {
		return ErrInvalidManifest{Field: "kind", Reason: "kind is required"}
	}

	if ds.Name == "" {
		return ErrInvalidManifest{Field: "name", Reason: "name is required"}
	}

	if ds.Source.ABI == "" {
		return ErrInvalidManifest{Field: "source.abi", Reason: "ABI is required"}
	}

	if len(ds.Mapping.EventHandlers) == 0 && len(ds.Mapping.CallHandlers) == 0 {
		return ErrInvalidManifest{Field: "mapping", Reason: "at least one event or call handler is required"}
	}

	return nil
}

// ErrInvalidManifest is returned when a manifest is invalid
type ErrInvalidManifest struct {
	Field  string
	Reason string
}

func (e ErrInvalidManifest) Error() string {
	return "invalid manifest field " + e.Field + ": " + e.Reason
}
