package params

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/operator-framework/cipcore/internal/engineerr"
)

func errUnknown(name string) error {
	return engineerr.Wrap(engineerr.ParameterUnknown, "params.lookup", fmt.Sprintf("no such parameter %q", name))
}

func errWrongType(name string, want, got Kind) error {
	return engineerr.Wrap(engineerr.ParameterWrongType, "params.lookup",
		fmt.Sprintf("parameter %q is %s, not %s", name, got, want))
}

func errWrongValue(name string, reason string) error {
	return engineerr.Wrap(engineerr.ParameterWrongValue, "params.set",
		fmt.Sprintf("parameter %q: %s", name, reason))
}

func errDuplicate(name string) error {
	return errors.Errorf("params: parameter %q already registered", name)
}
