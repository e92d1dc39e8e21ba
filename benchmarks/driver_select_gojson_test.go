//go:build gojson

package benchmarks_test

import (
	"github.com/reoring/protoasm"
	drv "github.com/reoring/protoasm/source/gojson"
)

func init() {
	protoasm.SetJSONDriver(drv.Driver())
}
