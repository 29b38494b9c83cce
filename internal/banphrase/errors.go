package banphrase

import "errors"

var ErrBadResponse = errors.New("banphrase: response missing boolean \"banned\" field")
