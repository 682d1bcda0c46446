package app

import (
	"bytes"
	"os"
	"testing"

	"github.com/vk/neodes/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. Logs are
// captured at debug level and dumped when NEODES_TEST_LOGS=true.
func SetupAppTest(t *testing.T, cfg *Config) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	out := &bytes.Buffer{}
	logBuffer := &testutil.SafeBuffer{}
	cfg.Model.Log.Level = "debug"
	testApp := NewApp(out, logBuffer, cfg)

	t.Cleanup(func() {
		if os.Getenv("NEODES_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, out, logBuffer
}
