package main

import (
	"errors"
	"testing"

	"github.com/crackerjack-go/crackerjack/pkg/crkerr"
	"github.com/stretchr/testify/assert"
)

func TestClassifyExitMapsKnownClasses(t *testing.T) {
	cases := []struct {
		class crkerr.Class
		want  int
	}{
		{crkerr.ClassSecurity, exitSecurityGate},
		{crkerr.ClassTimeout, exitTimeout},
		{crkerr.ClassConfig, exitFatalConfig},
		{crkerr.ClassSubprocess, exitHookOrTest},
	}
	for _, c := range cases {
		err := crkerr.Wrapf(c.class, "boom")
		assert.Equal(t, c.want, classifyExit(err, exitFatalConfig))
	}
}

func TestClassifyExitFallsBackForUnclassifiedError(t *testing.T) {
	assert.Equal(t, exitBudgetExceeded, classifyExit(errors.New("plain"), exitBudgetExceeded))
}

func TestAsExitErrorUnwrapsExitError(t *testing.T) {
	var ee exitError
	ok := asExitError(exitError{code: exitTimeout}, &ee)
	assert.True(t, ok)
	assert.Equal(t, exitTimeout, ee.code)
}

func TestAsExitErrorRejectsOtherErrors(t *testing.T) {
	var ee exitError
	ok := asExitError(errors.New("nope"), &ee)
	assert.False(t, ok)
}
