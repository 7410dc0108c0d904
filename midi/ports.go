package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"gridseq/debug"
)

var (
	ErrPortNotFound = errors.New("MIDI output port not found")
	ErrPortTimeout  = errors.New("MIDI port scan timed out")
)

// ScanTimeout bounds a port listing. CoreMIDI can hang.
var ScanTimeout = 3 * time.Second

// ListOutPorts returns the names of the available output ports.
func ListOutPorts() ([]string, error) {
	ports, err := outPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names, nil
}

func outPorts() ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(ScanTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, ErrPortTimeout
	}
}

// MatchPort returns the index of the first name containing query, ignoring case.
func MatchPort(names []string, query string) int {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return -1
	}
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), query) {
			return i
		}
	}
	return -1
}

// Output is an open output port
type Output struct {
	port drivers.Out
	send func(gomidi.Message) error
}

// Open opens the first output port whose name contains query.
func Open(query string) (*Output, error) {
	ports, err := outPorts()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	i := MatchPort(names, query)
	if i < 0 {
		return nil, fmt.Errorf("%w: %q", ErrPortNotFound, query)
	}

	send, err := gomidi.SendTo(ports[i])
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", names[i], err)
	}
	debug.Log("midi", "opened output %s", names[i])
	return &Output{port: ports[i], send: send}, nil
}

// Name returns the port name
func (o *Output) Name() string {
	return o.port.String()
}

// Send writes a message to the port
func (o *Output) Send(msg gomidi.Message) error {
	return o.send(msg)
}

// Close closes the port
func (o *Output) Close() error {
	return o.port.Close()
}
