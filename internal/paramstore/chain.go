package paramstore

// Getter is the read side shared by every parameter store.
type Getter interface {
	GetString(key string) (string, bool)
	GetBool(key string) (bool, bool)
}

// Chain consults each store in order and returns the first hit.
type Chain []Getter

// GetString implements Getter.
func (c Chain) GetString(key string) (string, bool) {
	for _, g := range c {
		if v, ok := g.GetString(key); ok {
			return v, true
		}
	}
	return "", false
}

// GetBool implements Getter.
func (c Chain) GetBool(key string) (bool, bool) {
	for _, g := range c {
		if v, ok := g.GetBool(key); ok {
			return v, true
		}
	}
	return false, false
}
