package config

import (
	"github.com/go-viper/mapstructure/v2"
)

// ToMap flattens the configuration into a plain map keyed by the
// mapstructure tags, suitable for diagnostics endpoints and persistence.
func (c *DualTrackConfig) ToMap() (map[string]any, error) {
	out := map[string]any{}
	if err := mapstructure.Decode(c, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FromMap rebuilds a DualTrackConfig from a map produced by ToMap.
// ToMap followed by FromMap yields an equivalent configuration.
func FromMap(m map[string]any) (*DualTrackConfig, error) {
	cfg := &DualTrackConfig{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     cfg,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, err
	}
	return cfg, nil
}
