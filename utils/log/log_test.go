package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	defer Configure("info", false)

	Configure("warn", false)
	require.Equal(t, logrus.WarnLevel, Level())

	// debug 플래그는 더 낮은 level을 강제
	Configure("warn", true)
	require.Equal(t, logrus.DebugLevel, Level())

	Configure("trace", true)
	require.Equal(t, logrus.TraceLevel, Level())

	Configure("nonsense", false)
	require.Equal(t, logrus.InfoLevel, Level())
}

func TestOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)
	defer Configure("info", false)

	Configure("info", false)
	Debugf("hidden %d", 1)
	Infof("[Test] shown %d", 2)

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "[Test] shown 2")
}
