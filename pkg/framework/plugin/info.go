package plugin

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Namespace is the UUIDv5 namespace plugin UIDs are derived in.
var Namespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("scripthost.justyntemme.github.com"))

// Info contains plugin metadata
type Info struct {
	ID       string // Unique plugin identifier (e.g., "com.example.myplugin")
	Name     string // Display name
	Version  string // Semantic version (e.g., "1.0.0")
	Vendor   string // Company/developer name
	Category string // Plugin category (e.g., "Fx", "Instrument")
}

// UUID returns the name-based UUID for the plugin ID. The same ID always
// yields the same UUID.
func (i Info) UUID() uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(i.ID))
}

// UID returns the UUID as the 16-byte class ID hosts expect.
func (i Info) UID() [16]byte {
	return i.UUID()
}

// ValidateUID checks that the info can produce a usable UID.
func (i Info) ValidateUID() error {
	if i.ID == "" {
		return errors.New("plugin ID is empty")
	}
	u := i.UUID()
	if u.Version() != 5 || u.Variant() != uuid.RFC4122 {
		return fmt.Errorf("plugin %q: unexpected UID %s", i.ID, u)
	}
	return nil
}

// ForScript derives the info for a script loaded into this plugin. Each
// script gets its own ID and UID.
func (i Info) ForScript(name string) Info {
	s := i
	s.ID = i.ID + ".script." + name
	s.Name = i.Name + " (" + name + ")"
	return s
}
