package domain

// requiredConnectionProperties maps each connection type to the property keys
// a connection of that type must carry. Screwed and adhesive connections have
// no additional schema.
var requiredConnectionProperties = map[ConnectionType][]string{
	ConnectionBolted:  {"fastener_type", "torque_spec"},
	ConnectionSlotted: {"slot_size", "insertion_depth"},
	ConnectionWelded:  {"weld_type", "weld_length"},
}

// RequiredConnectionProperties returns the required property keys for a
// connection type, nil when the type carries no additional schema.
func RequiredConnectionProperties(t ConnectionType) []string {
	return append([]string(nil), requiredConnectionProperties[t]...)
}

// CanonicalPair reorders two instance identifiers so the smaller id comes
// first, giving the unordered pair a single stored representation. Connecting
// an instance to itself is rejected.
func CanonicalPair(instance1, instance2 string) (string, string, error) {
	if instance1 == instance2 {
		return "", "", SelfConnectionError{InstanceID: instance1}
	}
	if instance1 > instance2 {
		return instance2, instance1, nil
	}
	return instance1, instance2, nil
}

// ValidateProperties checks the connection's property mapping against the
// required-key schema of its type.
func (c Connection) ValidateProperties() error {
	if !c.Type.Valid() {
		return SchemaError{Field: "connection_type", Detail: "unknown connection type " + string(c.Type)}
	}
	required, ok := requiredConnectionProperties[c.Type]
	if !ok {
		return nil
	}
	var missing []string
	for _, key := range required {
		if _, ok := c.Properties[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return SchemaError{Field: "connection_properties", Missing: missing}
	}
	return nil
}

// ValidateEMIShielding checks that an emi_shielding key, when present, holds
// a boolean.
func ValidateEMIShielding(properties map[string]any) error {
	shielding, ok := properties["emi_shielding"]
	if !ok {
		return nil
	}
	if _, ok := shielding.(bool); !ok {
		return SchemaError{Field: "connection_properties", Detail: "emi_shielding must be a boolean value"}
	}
	return nil
}
