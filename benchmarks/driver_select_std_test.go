//go:build stdjson

package polyjson_test

import polyjson "github.com/reoring/polyjson"

func init() {
	polyjson.SetJSONDriver(polyjson.StdJSONDriver())
}
