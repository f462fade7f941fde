package memstore

import (
	"testing"

	"github.com/stratumlabs/strata/storage"
	"github.com/stratumlabs/strata/storage/testkit"
)

func TestMemstore_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		return New()
	})
}
