package feature

// Schemas lists every schema served by the application.
func Schemas() []*Schema {
	return []*Schema{Student, Cancer, Ship}
}

// Lookup finds a schema by name.
func Lookup(name string) (*Schema, bool) {
	for _, s := range Schemas() {
		if s.name == name {
			return s, true
		}
	}
	return nil, false
}
