package platform

import (
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKernel(t *testing.T) {
	cases := []struct {
		input string
		want  Kernel
		ok    bool
	}{
		{"6.11.5-300.fc41.x86_64", Kernel{"6.11.5", "300", 41, "x86_64"}, true},
		{"6.8.0-1.fc40.aarch64", Kernel{"6.8.0", "1", 40, "aarch64"}, true},
		{"6.11.5-300.x86_64", Kernel{}, false},       // missing .fcN
		{"6.11.5-300.fc41", Kernel{}, false},         // missing arch
		{"6.11.5-300.fc41.ppc64le", Kernel{}, false}, // unsupported arch
		{"6.11-300.fc41.x86_64", Kernel{}, false},    // missing patch level
		{"v6.11.5-300.fc41.x86_64", Kernel{}, false},
		{"", Kernel{}, false},
	}

	for _, c := range cases {
		kernel, err := ParseKernel(c.input)
		if !c.ok {
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, "input %q", c.input)
			continue
		}
		require.NoError(t, err, "input %q", c.input)
		assert.Equal(t, c.want, kernel)
		assert.Equal(t, c.input, kernel.String())
	}
}

func TestTargetValidate(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	require.NoError(t, Target{KernelVersion: "6.11.5-300.fc41.x86_64", FedoraVersion: 41}.Validate())
	assert.Empty(t, hook.Entries)

	// out-of-range Fedora version is advisory only
	require.NoError(t, Target{KernelVersion: "6.11.5-300.fc41.x86_64", FedoraVersion: 99}.Validate())
	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	hook.Reset()

	// mismatch with the embedded fcN is advisory only
	require.NoError(t, Target{KernelVersion: "6.11.5-300.fc41.x86_64", FedoraVersion: 42}.Validate())
	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	hook.Reset()

	// absent Fedora version is acceptable
	require.NoError(t, Target{KernelVersion: "6.11.5-300.fc41.x86_64"}.Validate())
	assert.Empty(t, hook.Entries)

	err := Target{KernelVersion: "6.11.5-300.x86_64", FedoraVersion: 41}.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}
