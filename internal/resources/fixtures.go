package resources

import (
	"bytes"
	"embed"

	"github.com/dmitrijs2005/consolecache/internal/normalize"
)

//go:embed fixtures/*.json
var fixtureFS embed.FS

// Fixture returns the demo payload of resource name.
func Fixture(name string) (any, bool) {
	data, err := fixtureFS.ReadFile("fixtures/" + name + ".json")
	if err != nil {
		return nil, false
	}
	v, err := normalize.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	return v, true
}
