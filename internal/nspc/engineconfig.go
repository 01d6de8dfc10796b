package nspc

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ExtensionVcmd registers one engine extension VCMD behind the engine's
// extension prefix byte.
type ExtensionVcmd struct {
	ID         uint8  `json:"id"`
	Name       string `json:"name"`
	ParamCount uint8  `json:"paramCount"`
}

// ReservedRegion is a half-open ARAM interval the compiler's layout planner
// must avoid.
type ReservedRegion struct {
	From uint16 `json:"from"`
	To   uint16 `json:"to"`
}

// Contains reports whether addr lies in [From, To).
func (r ReservedRegion) Contains(addr uint16) bool {
	return addr >= r.From && addr < r.To
}

// Overlaps reports whether [from, from+length) intersects this region.
func (r ReservedRegion) Overlaps(from uint16, length int) bool {
	to := int(from) + length
	return int(from) < int(r.To) && to > int(r.From)
}

// EngineConfig is an immutable description of one music engine variant.
type EngineConfig struct {
	Name    string `json:"name"`
	Bytes   []byte `json:"engineBytes"`
	EntryPoint uint16 `json:"entryPoint"`

	SongIndexPointers uint16 `json:"songIndexPointers"`
	SampleDirectory   uint16 `json:"sampleDirectory"`
	InstrumentTable   uint16 `json:"instrumentTable"`
	SampleHeaders     uint16 `json:"sampleHeaders"`

	ReservedRegions []ReservedRegion `json:"reservedRegions"`

	// VcmdRemap maps a raw engine opcode byte to the internal VcmdKind. A
	// strict engine fails parsing on an opcode absent from this map (minus
	// the extension prefix).
	VcmdRemap map[uint8]VcmdKind `json:"-"`
	// RawVcmdRemap is the JSON-friendly (string-keyed) form of VcmdRemap.
	RawVcmdRemap map[string]VcmdKind `json:"vcmdRemap"`

	ExtensionVcmdPrefix uint8           `json:"extensionVcmdPrefix"`
	ExtensionVcmds      []ExtensionVcmd `json:"extensionVcmds"`

	FastForwardOnOpcode  uint8 `json:"fastForwardOnOpcode"`
	FastForwardOffOpcode uint8 `json:"fastForwardOffOpcode"`

	DefaultEngineSongs       []int32 `json:"defaultEngineSongs"`
	DefaultEngineInstruments []int32 `json:"defaultEngineInstruments"`
	DefaultEngineSamples     []int32 `json:"defaultEngineSamples"`

	Strict bool `json:"strict"`
}

// ErrInvalidConfig is returned when no engine configs were supplied to the
// parser.
var ErrInvalidConfig = fmt.Errorf("nspc: invalid config")

// LoadEngineConfigs parses a JSON array of engine configs. Returns
// ErrInvalidConfig wrapped with detail if the document is empty or
// malformed, matching the original's dedicated engine-config-load-failure
// test coverage.
func LoadEngineConfigs(data []byte) ([]*EngineConfig, error) {
	var raw []*EngineConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no engine configs present", ErrInvalidConfig)
	}
	for _, c := range raw {
		if len(c.Bytes) == 0 {
			return nil, fmt.Errorf("%w: engine %q has no signature bytes", ErrInvalidConfig, c.Name)
		}
		c.VcmdRemap = make(map[uint8]VcmdKind, len(c.RawVcmdRemap))
		for k, v := range c.RawVcmdRemap {
			var opcode uint8
			if _, err := fmt.Sscanf(k, "%d", &opcode); err != nil {
				return nil, fmt.Errorf("%w: bad vcmd remap key %q", ErrInvalidConfig, k)
			}
			c.VcmdRemap[opcode] = v
		}
	}
	return raw, nil
}

// EngineOpcodeFor returns the raw engine opcode byte for kind under this
// config's remap, falling back to the builtin base ID.
func (c *EngineConfig) EngineOpcodeFor(kind VcmdKind) uint8 {
	for raw, k := range c.VcmdRemap {
		if k == kind {
			return raw
		}
	}
	return vcmdBaseID[kind]
}

// KindForOpcode resolves a raw opcode byte to a VcmdKind via this config's
// remap, falling back to the builtin table. ok is false if neither maps the
// opcode, whether or not the config is Strict.
func (c *EngineConfig) KindForOpcode(opcode uint8) (VcmdKind, bool) {
	if k, found := c.VcmdRemap[opcode]; found {
		return k, true
	}
	for kind, id := range vcmdBaseID {
		if id == opcode {
			return kind, true
		}
	}
	if c.Strict {
		return 0, false
	}
	return 0, false
}

// IsEngineSong reports whether songID is in this config's default engine
// song list.
func (c *EngineConfig) IsEngineSong(id int32) bool { return contains(c.DefaultEngineSongs, id) }

// IsEngineInstrument reports whether id is in this config's default engine
// instrument list.
func (c *EngineConfig) IsEngineInstrument(id int32) bool {
	return contains(c.DefaultEngineInstruments, id)
}

// IsEngineSample reports whether id is in this config's default engine
// sample list.
func (c *EngineConfig) IsEngineSample(id int32) bool { return contains(c.DefaultEngineSamples, id) }

func contains(xs []int32, v int32) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
