package registry

import "fmt"

// Entity is the payload stored on lineage graph nodes. The well-known
// fields cover what every entity has; anything aspect-specific lives in
// Properties.
type Entity struct {
	URN        string            `json:"urn" toml:"urn" bson:"urn"`
	Type       string            `json:"type" toml:"type" bson:"type"`
	Platform   string            `json:"platform,omitempty" toml:"platform,omitempty" bson:"platform,omitempty"`
	Name       string            `json:"name,omitempty" toml:"name,omitempty" bson:"name,omitempty"`
	Properties map[string]string `json:"properties,omitempty" toml:"properties,omitempty" bson:"properties,omitempty"`
}

// Field reads a named field from the entity: the well-known fields first,
// then Properties. Missing fields are an error so misconfigured unique
// keys surface instead of silently deduplicating everything onto "".
func (e Entity) Field(key string) (string, error) {
	switch key {
	case "urn":
		return e.URN, nil
	case "type":
		return e.Type, nil
	case "platform":
		return e.Platform, nil
	case "name":
		return e.Name, nil
	}
	if v, ok := e.Properties[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("entity %s has no field %q", e.URN, key)
}

// DisplayName returns the name if set, otherwise the URN.
func (e Entity) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.URN
}
