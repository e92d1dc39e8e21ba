// Package source installs the go-json driver as the default JSON driver.
// Import it for its side effect:
//
//	import _ "github.com/reoring/protoasm/source"
package source

import (
	"github.com/reoring/protoasm"
	drvgojson "github.com/reoring/protoasm/source/gojson"
)

// init in a separate package to avoid import cycle in root.
func init() { protoasm.SetJSONDriver(drvgojson.Driver()) }
