package normalize

import "encoding/json"

// ShapeAlbums reconciles the three shapes the album endpoints have been seen
// to return:
//
//	[{...}, {...}]          -> {albums: [...]}
//	{id: ..., title: ...}   -> {albums: [{...}]}
//	{albums: [...]}         -> unchanged, success added when missing
//
// Objects carrying an error field are left alone. Anything else is marked
// successful without restructuring. A field counts as present only when it
// holds a truthy value: null, false, "" and 0 are treated as missing.
func ShapeAlbums(value any) any {
	switch v := value.(type) {
	case []any:
		return map[string]any{"albums": v}
	case map[string]any:
		hasAlbums := present(v, "albums")
		if hasAlbums || present(v, "error") {
			if hasAlbums {
				if _, ok := v["success"]; !ok {
					return withSuccess(v)
				}
			}
			return v
		}
		if present(v, "id") || present(v, "title") {
			return map[string]any{"albums": []any{v}}
		}
		return withSuccess(v)
	default:
		out := map[string]any{"success": true}
		if v != nil {
			out["data"] = v
		}
		return out
	}
}

func present(obj map[string]any, key string) bool {
	return truthy(obj[key])
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	}
	return true
}

func withSuccess(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		out[k] = v
	}
	out["success"] = true
	return out
}
