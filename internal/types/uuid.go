package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex disc_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

// initializeSID initializes the shortid generator once
func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateDiscountCode returns a short, human-enterable discount code,
// e.g. `SAVE-X7KQ2M`. Used when the operator asks for a generated code
// instead of supplying one.
func GenerateDiscountCode() string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	id = strings.ReplaceAll(id, "-", "")
	id = strings.ReplaceAll(id, "_", "")

	if len(id) > 8 {
		id = id[:8]
	}

	return strings.ToUpper(id)
}

const (
	// Prefixes for all domains and entities
	UUID_PREFIX_DISCOUNT     = "disc"
	UUID_PREFIX_CONNECTION   = "conn"
	UUID_PREFIX_ORGANIZATION = "org"
	UUID_PREFIX_PRODUCT      = "prod"
)
