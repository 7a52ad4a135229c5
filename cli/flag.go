package cli

import (
	"github.com/morikuni/failure/v2"
	"github.com/spf13/pflag"
)

// Transport names a server transport.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportSSE   Transport = "sse"
)

type transportFlagValue struct {
	IsSet bool
	Value Transport
}

func newTransportFlag() *transportFlagValue {
	return &transportFlagValue{Value: TransportStdio}
}

// String implements pflag.Value.
func (f *transportFlagValue) String() string {
	return string(f.Value)
}

func (f *transportFlagValue) Set(value string) error {
	switch Transport(value) {
	case TransportStdio, TransportSSE:
		f.Value = Transport(value)
		f.IsSet = true
		return nil
	default:
		return failure.New(InvalidTransportFlag,
			failure.Message("transport must be stdio or sse"),
			failure.Context{"value": value},
		)
	}
}

func (f *transportFlagValue) Type() string {
	return "transport"
}

var _ pflag.Value = &transportFlagValue{}
