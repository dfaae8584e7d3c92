package api

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string // optional; when set every /api/v1 request must carry it
}

// FieldResponse describes one auxiliary field of the header
type FieldResponse struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Policy     string      `json:"policy"`
	EnumLabels []string    `json:"enum_labels,omitempty"`
	Default    interface{} `json:"default,omitempty"`
}

// HeaderResponse is the JSON form of a file header
type HeaderResponse struct {
	Path              string              `json:"path"`
	NumReadGroups     uint32              `json:"num_read_groups"`
	RecordCompression string              `json:"record_compression"`
	SignalCompression string              `json:"signal_compression"`
	Attributes        []map[string]string `json:"attributes"`
	Fields            []FieldResponse     `json:"fields"`
}

// ReadListResponse is one page of read ids in file order
type ReadListResponse struct {
	ReadIDs []string `json:"read_ids"`
	Next    string   `json:"next,omitempty"`
}

// ReadResponse is the JSON form of a record. Non-finite numbers are null.
type ReadResponse struct {
	ReadID       string                 `json:"read_id"`
	ReadGroup    uint32                 `json:"read_group"`
	Digitisation *float64               `json:"digitisation"`
	Offset       *float64               `json:"offset"`
	Range        *float64               `json:"range"`
	SamplingRate *float64               `json:"sampling_rate"`
	LenRawSignal int                    `json:"len_raw_signal"`
	RawSignal    []int16                `json:"raw_signal,omitempty"`
	Picoamps     []*float64             `json:"picoamps,omitempty"`
	Aux          map[string]interface{} `json:"aux,omitempty"`
}
