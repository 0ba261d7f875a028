// ABOUTME: Decoding of the loosely-typed JSON the modx-mcp connector returns
// ABOUTME: Coerces heterogeneous parameter metadata into the typed data model

package modx

import (
	"github.com/spf13/cast"
)

// parseProcessorList decodes a discovery response envelope. The connector is
// PHP and its output is only loosely shaped, so every field falls back to a
// safe default: empty processor list, zero total, "unknown" generation time.
func parseProcessorList(raw map[string]any) *ProcessorList {
	list := &ProcessorList{
		Processors:  []Processor{},
		Total:       0,
		GeneratedAt: "unknown",
	}
	if raw == nil {
		return list
	}

	if v, ok := raw["total"]; ok {
		list.Total = cast.ToInt(v)
	}
	if v, ok := raw["generated_at"]; ok {
		if s := cast.ToString(v); s != "" {
			list.GeneratedAt = s
		}
	}

	procs, ok := raw["processors"].([]any)
	if !ok {
		return list
	}
	for _, p := range procs {
		entry, ok := p.(map[string]any)
		if !ok {
			continue
		}
		list.Processors = append(list.Processors, parseProcessor(entry))
	}
	return list
}

func parseProcessor(raw map[string]any) Processor {
	proc := Processor{
		Namespace:   cast.ToString(raw["namespace"]),
		Path:        cast.ToString(raw["path"]),
		Description: cast.ToString(raw["description"]),
	}

	params, ok := raw["parameters"].([]any)
	if !ok {
		return proc
	}
	for _, p := range params {
		entry, ok := p.(map[string]any)
		if !ok {
			continue
		}
		param := Parameter{
			Name:        cast.ToString(entry["name"]),
			Type:        coerceParamType(cast.ToString(entry["type"])),
			Required:    cast.ToBool(entry["required"]),
			Description: cast.ToString(entry["description"]),
		}
		if d, ok := entry["default"]; ok {
			param.Default = d
		}
		proc.Parameters = append(proc.Parameters, param)
	}
	return proc
}

// coerceParamType maps the connector's free-form type strings onto the closed
// ParamType set. PHP reflection reports "int", "bool", "mixed", union types,
// and the occasional class name; everything unrecognized becomes a string.
func coerceParamType(t string) ParamType {
	switch t {
	case "integer", "int":
		return ParamInteger
	case "boolean", "bool":
		return ParamBoolean
	case "string", "text":
		return ParamString
	case "array":
		return ParamArray
	case "object":
		return ParamObject
	default:
		return ParamString
	}
}
