package core

// EngineKind identifies the backend a query or materialized view is served by.
type EngineKind string

const (
	// EngineOLTP is the transactional engine (PostgreSQL).
	EngineOLTP EngineKind = "oltp"

	// EngineOLAP is the analytical engine (DuckDB).
	EngineOLAP EngineKind = "olap"
)

// ParseEngineKind validates and converts a raw engine string.
// An empty string defaults to EngineOLTP.
func ParseEngineKind(s string) (EngineKind, error) {
	switch EngineKind(s) {
	case "":
		return EngineOLTP, nil
	case EngineOLTP:
		return EngineOLTP, nil
	case EngineOLAP:
		return EngineOLAP, nil
	}
	return "", &ValidationError{Field: "engine", Reason: "must be one of: oltp, olap"}
}

// Valid reports whether the engine kind is a known value.
func (e EngineKind) Valid() bool {
	return e == EngineOLTP || e == EngineOLAP
}
