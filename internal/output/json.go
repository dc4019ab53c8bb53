package output

import (
	"encoding/json"
)

// JSONFormatter renders the full report, including retained scenarios
type JSONFormatter struct {
	Pretty bool
}

func (j JSONFormatter) Name() string {
	if j.Pretty {
		return "json"
	}
	return "json-raw"
}

func (j JSONFormatter) Format(r *Report) ([]byte, error) {
	if j.Pretty {
		return json.MarshalIndent(r, "", "  ")
	}
	return json.Marshal(r)
}
