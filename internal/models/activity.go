package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Activity actions
const (
	ActionLogin          = "LOGIN"
	ActionFailedLogin    = "FAILED_LOGIN"
	ActionLogout         = "LOGOUT"
	ActionPasswordChange = "PASSWORD_CHANGE"
	ActionCreate         = "CREATE"
	ActionUpdate         = "UPDATE"
	ActionDelete         = "DELETE"
	ActionView           = "VIEW"
	ActionDownload       = "DOWNLOAD"
	ActionApprove        = "APPROVE"
	ActionReject         = "REJECT"
)

// Entity types referenced by activity entries
const (
	EntityTypeUser         = "user"
	EntityTypeCase         = "case"
	EntityTypeDocument     = "document"
	EntityTypeDepartment   = "department"
	EntityTypeNotification = "notification"
	EntityTypeTask         = "task"
	EntityTypePermission   = "permission"
)

// Activity is one immutable audit entry. Entries are created by the activity
// service and never updated or deleted outside of retention cleanup.
type Activity struct {
	ID          string
	ActorID     *string
	Action      string
	EntityType  string
	EntityID    string
	Description *string
	Metadata    Metadata
	CaseID      *string
	IPAddress   *string
	UserAgent   *string
	CreatedAt   time.Time
}

// Metadata holds additional structured context for activities and cases.
// Values are restricted to JSON-representable kinds; use NormalizeMetadata
// at the boundary before persisting caller-supplied maps.
type Metadata map[string]any

// maxMetadataDepth bounds recursion when normalizing nested metadata
const maxMetadataDepth = 8

// NormalizeMetadata returns a copy of m containing only serializable values:
// strings, booleans, numbers (coerced to float64), nil, timestamps (RFC 3339
// strings), lists and string-keyed maps of the same. Unsupported values are
// dropped rather than surfaced as errors, and nesting beyond a fixed depth is
// truncated.
func NormalizeMetadata(m map[string]any) Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		nv, ok := normalizeValue(v, maxMetadataDepth)
		if !ok {
			continue
		}
		out[k] = nv
	}
	return out
}

func normalizeValue(v any, depth int) (any, bool) {
	if depth <= 0 {
		return nil, false
	}

	switch val := v.(type) {
	case nil:
		return nil, true
	case string:
		return val, true
	case bool:
		return val, true
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f, true
		}
		return val.String(), true
	case time.Time:
		return val.UTC().Format(time.RFC3339), true
	case []any:
		list := make([]any, 0, len(val))
		for _, item := range val {
			ni, ok := normalizeValue(item, depth-1)
			if !ok {
				continue
			}
			list = append(list, ni)
		}
		return list, true
	case map[string]any:
		nested := make(map[string]any, len(val))
		for k, item := range val {
			ni, ok := normalizeValue(item, depth-1)
			if !ok {
				continue
			}
			nested[k] = ni
		}
		return nested, true
	case Metadata:
		return normalizeValue(map[string]any(val), depth)
	default:
		return nil, false
	}
}

// Scan implements sql.Scanner for JSONB
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = make(Metadata)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return ErrBadRequest
	}

	var raw map[string]any
	if err := json.Unmarshal(bytes, &raw); err != nil {
		return err
	}
	*m = Metadata(raw)
	return nil
}

// Value implements driver.Valuer for JSONB
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// MarshalJSON implements json.Marshaler
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(m))
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Metadata(raw)
	return nil
}
