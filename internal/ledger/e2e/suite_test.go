package e2e_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
)

func TestE2E(t *testing.T) {
	RunSpecs(t, "Ledger End-To-End Suite")
}
