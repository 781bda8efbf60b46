package config

import "sort"

type Preset struct {
	Description string
	Start       float64
	Target      float64
	Controller  string
}

var Presets = map[string]Preset{
	"quarter-turn": {Description: "PID move from -90° to 45°", Start: -90, Target: 45, Controller: "pid"},
	"hold":         {Description: "hold position at 0°", Start: 0, Target: 0, Controller: "pid"},
	"half-turn":    {Description: "fuzzy move from 0° to 180°", Start: 0, Target: 180, Controller: "fuzzy"},
	"reverse":      {Description: "PID move from 90° to -90°", Start: 90, Target: -90, Controller: "pid"},
	"nudge":        {Description: "fuzzy 1° correction from 45°", Start: 45, Target: 46, Controller: "fuzzy"},
}

// GetPreset returns a default configuration with the preset's move applied,
// or nil if name is unknown.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.StartPosition = p.Start
	cfg.TargetPosition = p.Target
	cfg.Controller = p.Controller
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
