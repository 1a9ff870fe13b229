package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/golang/glog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/Overflow0xFFFF/nesproject/console"
	"github.com/Overflow0xFFFF/nesproject/controller"
	"github.com/Overflow0xFFFF/nesproject/savefile"
)

// MaxBlockSize bounds ReadMemoryBlock to the CPU address space.
const MaxBlockSize = 0x10000

// GRPCServer exposes a Machine to remote controllers and tools.
type GRPCServer struct {
	machine *Machine
	server  *grpc.Server
}

// NewGRPCServer creates a server for m.
func NewGRPCServer(m *Machine) *GRPCServer {
	s := &GRPCServer{machine: m, server: grpc.NewServer()}
	RegisterConsoleServer(s.server, s)
	return s
}

// toStatus maps console errors onto gRPC codes.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, console.ErrNoCartridge):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, console.ErrHalted):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, console.ErrStateMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func requireCartridge(c *console.Console) error {
	if !c.HasCartridge() {
		return console.ErrNoCartridge
	}
	return nil
}

// GetFrame returns the last completed frame as 256x240 palette indices.
func (s *GRPCServer) GetFrame(ctx context.Context, in *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	var pixels []byte
	err := s.machine.Do(func(c *console.Console) error {
		if err := requireCartridge(c); err != nil {
			return err
		}
		fb := c.Pixels()
		pixels = fb[:]
		return nil
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(pixels), nil
}

// ReadMemory returns the byte at a CPU address without side effects.
func (s *GRPCServer) ReadMemory(ctx context.Context, in *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error) {
	if in.GetValue() > 0xFFFF {
		return nil, status.Errorf(codes.InvalidArgument, "address $%X out of range", in.GetValue())
	}
	var data byte
	err := s.machine.Do(func(c *console.Console) error {
		if err := requireCartridge(c); err != nil {
			return err
		}
		data = c.Peek(uint16(in.GetValue()))
		return nil
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.UInt32(uint32(data)), nil
}

// ReadMemoryBlock returns size bytes from address. The request carries
// numeric "address" and "size" fields.
func (s *GRPCServer) ReadMemoryBlock(ctx context.Context, in *structpb.Struct) (*wrapperspb.BytesValue, error) {
	fields := in.GetFields()
	addr := fields["address"].GetNumberValue()
	size := fields["size"].GetNumberValue()
	if addr < 0 || addr > 0xFFFF {
		return nil, status.Errorf(codes.InvalidArgument, "address %v out of range", addr)
	}
	if size < 0 || size > MaxBlockSize {
		return nil, status.Errorf(codes.InvalidArgument, "size %v out of range", size)
	}
	var block []byte
	err := s.machine.Do(func(c *console.Console) error {
		if err := requireCartridge(c); err != nil {
			return err
		}
		block = c.PeekBlock(uint16(addr), int(size))
		return nil
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(block), nil
}

// GetCPUState returns the registers and PPU position.
func (s *GRPCServer) GetCPUState(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
	var regs Registers
	err := s.machine.Do(func(c *console.Console) error {
		if err := requireCartridge(c); err != nil {
			return err
		}
		regs = snapshot(c)
		return nil
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return regs.toStruct()
}

// Reset presses the reset button.
func (s *GRPCServer) Reset(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	err := s.machine.Do(func(c *console.Console) error {
		if err := requireCartridge(c); err != nil {
			return err
		}
		c.Reset()
		return nil
	})
	if err != nil {
		return nil, toStatus(err)
	}
	glog.Info("Remote reset")
	return &emptypb.Empty{}, nil
}

// Pause suspends the host loop.
func (s *GRPCServer) Pause(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	s.machine.SetPaused(true)
	return &emptypb.Empty{}, nil
}

// Resume restarts the host loop.
func (s *GRPCServer) Resume(ctx context.Context, in *emptypb.Empty) (*emptypb.Empty, error) {
	s.machine.SetPaused(false)
	return &emptypb.Empty{}, nil
}

// Step pauses the machine, executes one instruction and returns the
// resulting registers.
func (s *GRPCServer) Step(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
	s.machine.SetPaused(true)
	var regs Registers
	err := s.machine.Do(func(c *console.Console) error {
		if _, err := c.Step(); err != nil {
			return err
		}
		regs = snapshot(c)
		return nil
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return regs.toStruct()
}

// SaveState writes a snapshot to a file on the emulator host.
func (s *GRPCServer) SaveState(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "missing filename")
	}
	err := s.machine.Do(func(c *console.Console) error {
		if err := requireCartridge(c); err != nil {
			return err
		}
		return savefile.SaveState(c, in.GetValue())
	})
	if err != nil {
		return nil, toStatus(fmt.Errorf("failed to save state: %w", err))
	}
	return &emptypb.Empty{}, nil
}

// LoadState restores a snapshot from a file on the emulator host.
func (s *GRPCServer) LoadState(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "missing filename")
	}
	err := s.machine.Do(func(c *console.Console) error {
		if err := requireCartridge(c); err != nil {
			return err
		}
		return savefile.LoadState(c, in.GetValue())
	})
	if err != nil {
		return nil, toStatus(fmt.Errorf("failed to load state: %w", err))
	}
	return &emptypb.Empty{}, nil
}

// StreamInput receives controller updates. Each message packs the port
// in bits 8-15 and the button mask in bits 0-7.
func (s *GRPCServer) StreamInput(stream grpc.ClientStreamingServer[wrapperspb.UInt32Value, emptypb.Empty]) error {
	for {
		req, err := stream.Recv()
		if err == io.EOF {
			return stream.SendAndClose(&emptypb.Empty{})
		}
		if err != nil {
			return err
		}
		port, mask := UnpackInput(req.GetValue())
		if port > 1 {
			return status.Errorf(codes.InvalidArgument, "no controller port %d", port)
		}
		s.machine.SetRemote(port, controller.FromMask(mask))
	}
}

// PackInput encodes a StreamInput message value.
func PackInput(port int, b controller.Buttons) uint32 {
	return uint32(port)<<8 | uint32(b.Mask())
}

// UnpackInput decodes a StreamInput message value.
func UnpackInput(v uint32) (port int, mask byte) {
	return int(v >> 8), byte(v)
}

// Serve blocks serving lis until Stop.
func (s *GRPCServer) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

// Start begins listening for gRPC connections on the given port.
func (s *GRPCServer) Start(port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	glog.Infof("gRPC server listening on %s", lis.Addr())

	go func() {
		if err := s.Serve(lis); err != nil {
			glog.Errorf("gRPC server error: %v", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the gRPC server.
func (s *GRPCServer) Stop() {
	s.server.GracefulStop()
}
