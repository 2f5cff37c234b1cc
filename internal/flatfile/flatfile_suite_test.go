package flatfile_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestFlatFile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "FlatFile Suite")
}
