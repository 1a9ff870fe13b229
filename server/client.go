package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Overflow0xFFFF/nesproject/controller"
	"github.com/Overflow0xFFFF/nesproject/ppu"
)

// Client is a typed wrapper over a connection to a GRPCServer.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, fullMethod(method), in, out)
}

// GetFrame fetches the last completed frame.
func (c *Client) GetFrame(ctx context.Context) (*ppu.FrameBuffer, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.invoke(ctx, "GetFrame", &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	var fb ppu.FrameBuffer
	if len(out.GetValue()) != len(fb) {
		return nil, fmt.Errorf("frame has %d bytes, want %d", len(out.GetValue()), len(fb))
	}
	copy(fb[:], out.GetValue())
	return &fb, nil
}

// ReadMemory reads one byte of the CPU address space.
func (c *Client) ReadMemory(ctx context.Context, addr uint16) (byte, error) {
	out := new(wrapperspb.UInt32Value)
	if err := c.invoke(ctx, "ReadMemory", wrapperspb.UInt32(uint32(addr)), out); err != nil {
		return 0, err
	}
	return byte(out.GetValue()), nil
}

// ReadMemoryBlock reads size bytes starting at addr.
func (c *Client) ReadMemoryBlock(ctx context.Context, addr uint16, size int) ([]byte, error) {
	in, err := structpb.NewStruct(map[string]any{"address": int(addr), "size": size})
	if err != nil {
		return nil, err
	}
	out := new(wrapperspb.BytesValue)
	if err := c.invoke(ctx, "ReadMemoryBlock", in, out); err != nil {
		return nil, err
	}
	return out.GetValue(), nil
}

// GetCPUState returns the CPU registers.
func (c *Client) GetCPUState(ctx context.Context) (Registers, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "GetCPUState", &emptypb.Empty{}, out); err != nil {
		return Registers{}, err
	}
	return registersFromStruct(out), nil
}

// Step executes one instruction, pausing the machine.
func (c *Client) Step(ctx context.Context) (Registers, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, "Step", &emptypb.Empty{}, out); err != nil {
		return Registers{}, err
	}
	return registersFromStruct(out), nil
}

// Reset presses the reset button.
func (c *Client) Reset(ctx context.Context) error {
	return c.invoke(ctx, "Reset", &emptypb.Empty{}, new(emptypb.Empty))
}

// Pause suspends emulation.
func (c *Client) Pause(ctx context.Context) error {
	return c.invoke(ctx, "Pause", &emptypb.Empty{}, new(emptypb.Empty))
}

// Resume restarts emulation.
func (c *Client) Resume(ctx context.Context) error {
	return c.invoke(ctx, "Resume", &emptypb.Empty{}, new(emptypb.Empty))
}

// SaveState writes a snapshot to filename on the emulator host.
func (c *Client) SaveState(ctx context.Context, filename string) error {
	return c.invoke(ctx, "SaveState", wrapperspb.String(filename), new(emptypb.Empty))
}

// LoadState restores a snapshot from filename on the emulator host.
func (c *Client) LoadState(ctx context.Context, filename string) error {
	return c.invoke(ctx, "LoadState", wrapperspb.String(filename), new(emptypb.Empty))
}

// InputStream sends controller updates until Close.
type InputStream struct {
	stream grpc.ClientStreamingClient[wrapperspb.UInt32Value, emptypb.Empty]
}

// StreamInput opens an input stream.
func (c *Client) StreamInput(ctx context.Context) (*InputStream, error) {
	st, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("StreamInput"))
	if err != nil {
		return nil, err
	}
	return &InputStream{stream: &grpc.GenericClientStream[wrapperspb.UInt32Value, emptypb.Empty]{ClientStream: st}}, nil
}

// Send sets the buttons held on port 0 or 1.
func (s *InputStream) Send(port int, b controller.Buttons) error {
	return s.stream.Send(wrapperspb.UInt32(PackInput(port, b)))
}

// Close ends the stream and waits for the server to acknowledge it.
func (s *InputStream) Close() error {
	_, err := s.stream.CloseAndRecv()
	return err
}
