package postgres

import (
	"fmt"

	domerr "github.com/radstash/radstash/pkg/domain/errors"
)

// requested record is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s ", m.Identity, m.Table)
}
func (m Missing) Unwrap() error {
	return domerr.ErrMissing
}

// requested change would break an invariant.
type Conflict struct {
	Table    string
	Identity string
	Reason   string
}

var _ error = Conflict{}

func (c Conflict) Error() string {
	return fmt.Sprintf(
		"%s in %s can not be changed: %s",
		c.Identity, c.Table, c.Reason,
	)
}
func (c Conflict) Unwrap() error {
	return domerr.ErrConflict
}
