package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestPortOptionsDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	require.NoError(t, err)
	require.Equal(t, PortOptions{
		BaudRate:    DefaultBaudRate,
		DataBits:    8,
		StopBits:    1,
		Parity:      "N",
		ReadTimeout: DefaultReadTimeout,
	}, opts)
}

func TestPortOptionsInvalid(t *testing.T) {
	testCases := []struct {
		name string
		opts PortOptions
	}{
		{"data bits", PortOptions{DataBits: 9}},
		{"stop bits", PortOptions{StopBits: 3}},
		{"parity", PortOptions{Parity: "mark"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.opts.Normalize()
			require.Error(t, err)
			_, err = tc.opts.SerialMode()
			require.Error(t, err)
		})
	}
}

func TestSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 9600, StopBits: 2, Parity: "even", ReadTimeout: time.Second}.SerialMode()
	require.NoError(t, err)
	require.Equal(t, &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		StopBits: serial.TwoStopBits,
		Parity:   serial.EvenParity,
	}, mode)

	mode, err = PortOptions{Parity: "o"}.SerialMode()
	require.NoError(t, err)
	require.Equal(t, serial.OneStopBit, mode.StopBits)
	require.Equal(t, serial.OddParity, mode.Parity)
	require.Equal(t, DefaultBaudRate, mode.BaudRate)
}
