package serialport

import (
	"io"

	"github.com/NotCoffee418/serial_terminal/pkg/termutils"
	jacobsa "github.com/jacobsa/go-serial/serial"
	tarm "github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// Opens a port and reports whether the driver signals read timeouts with io.EOF.
type openFunc func(options Options) (io.ReadWriteCloser, bool, error)

var openers = map[Driver]openFunc{
	DriverJacobsa: openJacobsa,
	DriverTarm:    openTarm,
	DriverBugst:   openBugst,
}

func openJacobsa(options Options) (io.ReadWriteCloser, bool, error) {
	parity := jacobsa.PARITY_NONE
	switch options.Parity {
	case ParityOdd:
		parity = jacobsa.PARITY_ODD
	case ParityEven:
		parity = jacobsa.PARITY_EVEN
	}

	// MinimumReadSize 0 turns every read into a timed poll, 100 ms granularity
	port, err := jacobsa.Open(jacobsa.OpenOptions{
		PortName:              options.PortName,
		BaudRate:              options.BaudRate,
		DataBits:              options.DataBits,
		StopBits:              options.StopBits,
		ParityMode:            parity,
		InterCharacterTimeout: termutils.RoundToTermiosMs(options.ReadTimeout),
		MinimumReadSize:       0,
	})
	if err != nil {
		return nil, false, err
	}
	return port, true, nil
}

func openTarm(options Options) (io.ReadWriteCloser, bool, error) {
	parity := tarm.ParityNone
	switch options.Parity {
	case ParityOdd:
		parity = tarm.ParityOdd
	case ParityEven:
		parity = tarm.ParityEven
	}

	port, err := tarm.OpenPort(&tarm.Config{
		Name:        options.PortName,
		Baud:        int(options.BaudRate),
		ReadTimeout: termutils.DecisecondsToDuration(termutils.DurationToDeciseconds(options.ReadTimeout)),
		Size:        byte(options.DataBits),
		Parity:      parity,
		StopBits:    tarm.StopBits(options.StopBits),
	})
	if err != nil {
		return nil, false, err
	}
	return port, true, nil
}

func openBugst(options Options) (io.ReadWriteCloser, bool, error) {
	mode := &bugst.Mode{
		BaudRate: int(options.BaudRate),
		DataBits: int(options.DataBits),
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	switch options.Parity {
	case ParityOdd:
		mode.Parity = bugst.OddParity
	case ParityEven:
		mode.Parity = bugst.EvenParity
	}
	if options.StopBits == 2 {
		mode.StopBits = bugst.TwoStopBits
	}

	port, err := bugst.Open(options.PortName, mode)
	if err != nil {
		return nil, false, err
	}
	if err := port.SetReadTimeout(options.ReadTimeout); err != nil {
		port.Close()
		return nil, false, err
	}
	return port, false, nil
}

// ListPorts returns the serial ports present on this machine.
func ListPorts() ([]string, error) {
	return bugst.GetPortsList()
}
