package keybackend

import (
	"fmt"

	"github.com/sagarc03/folio"
)

// ErrKeyNotFound is returned when the access key does not exist in the store.
var ErrKeyNotFound = fmt.Errorf("access key not found: %w", folio.ErrUnauthorized)
